package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-assignments-api/internal/models"
)

// AssignmentRepository defines persistence operations for assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	FindByID(ctx context.Context, id uint) (models.Assignment, error)
	FindAllByOwner(ctx context.Context, ownerID uint) ([]models.Assignment, error)
	Save(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id uint) error
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository instantiates a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) FindByID(ctx context.Context, id uint) (models.Assignment, error) {
	var assignment models.Assignment
	if err := r.db.WithContext(ctx).First(&assignment, id).Error; err != nil {
		return models.Assignment{}, err
	}

	return assignment, nil
}

func (r *assignmentRepository) FindAllByOwner(ctx context.Context, ownerID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	if err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerID).
		Order("id ASC").
		Find(&assignments).Error; err != nil {
		return nil, err
	}

	return assignments, nil
}

// Save writes the mutable columns only; owner_user_id is never part of an update.
func (r *assignmentRepository) Save(ctx context.Context, assignment *models.Assignment) error {
	result := r.db.WithContext(ctx).
		Model(assignment).
		Select("name", "points", "num_of_attempts", "deadline", "updated_at").
		Updates(assignment)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *assignmentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).Delete(&models.Submission{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.Assignment{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
