package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assignments-api/internal/models"
)

// Attempt scoping modes.
const (
	ScopeSubmitter = "submitter"
	ScopeOwner     = "owner"
)

// ErrAttemptLimitReached is returned when admitting a submission would exceed the limit.
var ErrAttemptLimitReached = errors.New("attempt limit reached")

// AttemptScope selects which submissions count against an assignment's limit.
//
// ScopeSubmitter counts the submitter's own submissions. ScopeOwner counts the
// assignment's submissions only when the submitter's email matches the
// assignment owner's email, so non-owners always count zero.
type AttemptScope struct {
	Mode           string
	SubmitterID    uint
	SubmitterEmail string
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	CountAttempts(ctx context.Context, assignmentID uint, scope AttemptScope) (int64, error)
	CreateWithinLimit(ctx context.Context, submission *models.Submission, limit int, scope AttemptScope) error
	ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) CountAttempts(ctx context.Context, assignmentID uint, scope AttemptScope) (int64, error) {
	return countAttempts(r.db.WithContext(ctx), assignmentID, scope)
}

// CreateWithinLimit counts and inserts in one transaction.
func (r *submissionRepository) CreateWithinLimit(ctx context.Context, submission *models.Submission, limit int, scope AttemptScope) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := countAttempts(tx, submission.AssignmentID, scope)
		if err != nil {
			return err
		}
		if count >= int64(limit) {
			return ErrAttemptLimitReached
		}

		return tx.Create(submission).Error
	})
}

func (r *submissionRepository) ListByAssignment(ctx context.Context, assignmentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("submission_date ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func countAttempts(db *gorm.DB, assignmentID uint, scope AttemptScope) (int64, error) {
	query := db.Model(&models.Submission{})

	switch scope.Mode {
	case ScopeOwner:
		query = query.
			Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
			Joins("JOIN users ON users.id = assignments.owner_user_id").
			Where("submissions.assignment_id = ?", assignmentID).
			Where("users.email = ?", scope.SubmitterEmail)
	default:
		query = query.
			Where("assignment_id = ?", assignmentID).
			Where("submitter_id = ?", scope.SubmitterID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}
