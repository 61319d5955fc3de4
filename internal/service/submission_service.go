package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assignments-api/internal/dto"
	"github.com/noah-isme/gema-assignments-api/internal/models"
	"github.com/noah-isme/gema-assignments-api/internal/observability"
	"github.com/noah-isme/gema-assignments-api/internal/repository"
)

const (
	msgSubmissionURLMissing = "Submission URL is missing or empty"
	msgSubmissionURLInvalid = "Invalid submission URL format"
)

// SubmissionService admits submission attempts and notifies downstream consumers.
type SubmissionService interface {
	Submit(ctx context.Context, principal Principal, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error)
	List(ctx context.Context, principal Principal, assignmentID uint) ([]dto.SubmissionResponse, error)
}

// SubmissionOptions configures where events go and how attempts are counted.
type SubmissionOptions struct {
	Topic string
	Scope string
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	validator   *validator.Validate
	locker      AttemptLocker
	notifier    Notifier
	topic       string
	scope       string
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(subRepo repository.SubmissionRepository, assignmentRepo repository.AssignmentRepository, validate *validator.Validate, locker AttemptLocker, notifier Notifier, opts SubmissionOptions, logger zerolog.Logger) SubmissionService {
	if locker == nil {
		locker = NoopAttemptLocker{}
	}
	if opts.Scope == "" {
		opts.Scope = repository.ScopeSubmitter
	}
	registerValidators(validate)

	return &submissionService{
		submissions: subRepo,
		assignments: assignmentRepo,
		validator:   validate,
		locker:      locker,
		notifier:    notifier,
		topic:       opts.Topic,
		scope:       opts.Scope,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-assignments-api/internal/service/submission"),
		now:         time.Now,
	}
}

func (s *submissionService) Submit(ctx context.Context, principal Principal, assignmentID uint, payload dto.SubmissionCreateRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submissions.submit")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("submission.assignment_id", int64(assignmentID)),
		attribute.Int64("submission.submitter_id", int64(principal.UserID)),
	)

	payload.SubmissionURL = strings.TrimSpace(payload.SubmissionURL)
	if err := s.validator.Struct(payload); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		observability.Submissions().WithLabelValues("invalid").Inc()
		return dto.SubmissionResponse{}, submissionURLError(err)
	}

	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		err = s.classifyLookup(err)
		s.fail(span, err, "assignment lookup failed")
		return dto.SubmissionResponse{}, err
	}

	now := s.now().UTC()
	if assignment.IsPastDue(now) {
		span.SetStatus(codes.Error, "deadline passed")
		observability.Submissions().WithLabelValues("deadline_passed").Inc()
		return dto.SubmissionResponse{}, ErrDeadlinePassed
	}

	scope := repository.AttemptScope{
		Mode:           s.scope,
		SubmitterID:    principal.UserID,
		SubmitterEmail: principal.Email,
	}
	submission := models.Submission{
		ID:                uuid.NewString(),
		AssignmentID:      assignment.ID,
		SubmitterID:       principal.UserID,
		SubmissionURL:     payload.SubmissionURL,
		SubmissionDate:    now,
		SubmissionUpdated: now,
	}

	if err := s.admit(ctx, &submission, assignment.NumOfAttempts, scope); err != nil {
		s.fail(span, err, "admission failed")
		return dto.SubmissionResponse{}, err
	}
	span.SetAttributes(attribute.String("submission.id", submission.ID))

	event := dto.SubmissionEvent{
		AssignmentID:  assignment.ID,
		SubmissionID:  submission.ID,
		SubmissionURL: submission.SubmissionURL,
		UserEmail:     principal.Email,
	}
	if err := s.notifier.Publish(ctx, s.topic, event); err != nil {
		s.logger.Error().Err(err).Str("submission_id", submission.ID).Msg("submission persisted but event was not published")
		span.RecordError(err)
		span.SetStatus(codes.Error, "notify failed")
		observability.Submissions().WithLabelValues("notify_failed").Inc()
		return dto.SubmissionResponse{}, unavailable("publish submission event", err)
	}

	observability.Submissions().WithLabelValues("accepted").Inc()
	s.logger.Info().
		Str("submission_id", submission.ID).
		Uint("assignment_id", assignment.ID).
		Uint("submitter_id", principal.UserID).
		Msg("submission accepted")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, principal Principal, assignmentID uint) ([]dto.SubmissionResponse, error) {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, s.classifyLookup(err)
	}
	if !assignment.OwnedBy(principal.UserID) {
		return nil, ErrForbidden
	}

	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, unavailable("list submissions", err)
	}
	return dto.NewSubmissionResponseSlice(submissions), nil
}

// admit counts prior attempts and inserts the submission while holding the attempt lock.
func (s *submissionService) admit(ctx context.Context, submission *models.Submission, limit int, scope repository.AttemptScope) error {
	unlock, err := s.locker.Lock(ctx, attemptLockKey(submission.AssignmentID, submission.SubmitterID))
	if err != nil {
		return unavailable("acquire attempt lock", err)
	}
	defer unlock()

	if err := s.submissions.CreateWithinLimit(ctx, submission, limit, scope); err != nil {
		if errors.Is(err, repository.ErrAttemptLimitReached) {
			return ErrRetryLimitExceeded
		}
		return unavailable("create submission", err)
	}
	return nil
}

func (s *submissionService) classifyLookup(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAssignmentNotFound
	}
	return unavailable("load assignment", err)
}

func (s *submissionService) fail(span trace.Span, err error, status string) {
	outcome := "unavailable"
	switch {
	case errors.Is(err, ErrAssignmentNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrRetryLimitExceeded):
		outcome = "retry_limit"
	default:
		s.logger.Error().Err(err).Msg(status)
		span.RecordError(err)
	}
	span.SetStatus(codes.Error, status)
	observability.Submissions().WithLabelValues(outcome).Inc()
}

func attemptLockKey(assignmentID, submitterID uint) string {
	return fmt.Sprintf("submissions:lock:%d:%d", assignmentID, submitterID)
}

func submissionURLError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "required" {
		return invalid("submission_url", msgSubmissionURLMissing)
	}
	if errors.As(err, &fieldErrs) {
		return invalid("submission_url", msgSubmissionURLInvalid)
	}
	return invalid("submission_url", msgSubmissionURLMissing)
}

// MissingSubmissionURL is returned when the request body cannot carry a string URL.
func MissingSubmissionURL() error {
	return invalid("submission_url", msgSubmissionURLMissing)
}
