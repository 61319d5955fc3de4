package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-assignments-api/internal/dto"
	"github.com/noah-isme/gema-assignments-api/internal/models"
	"github.com/noah-isme/gema-assignments-api/internal/repository"
)

const assignmentCreateSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["name", "points", "num_of_attempts", "deadline"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"points": {"type": "integer", "minimum": 1, "maximum": 10},
		"num_of_attempts": {"type": "integer", "minimum": 1},
		"deadline": {"type": "string", "minLength": 1}
	}
}`

var assignmentCreateValidator = jsonschema.MustCompileString("assignment_create.json", assignmentCreateSchema)

// AssignmentService exposes assignment domain use cases for an authenticated principal.
type AssignmentService interface {
	List(ctx context.Context, principal Principal) ([]dto.AssignmentResponse, error)
	Get(ctx context.Context, principal Principal, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, principal Principal, body []byte) (dto.AssignmentResponse, error)
	Update(ctx context.Context, principal Principal, id uint, body []byte) error
	Delete(ctx context.Context, principal Principal, id uint) error
}

type assignmentService struct {
	repo               repository.AssignmentRepository
	validator          *validator.Validate
	enforceUpdateOwner bool
	logger             zerolog.Logger
	now                func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(repo repository.AssignmentRepository, validate *validator.Validate, enforceUpdateOwner bool, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		repo:               repo,
		validator:          validate,
		enforceUpdateOwner: enforceUpdateOwner,
		logger:             logger.With().Str("component", "assignment_service").Logger(),
		now:                time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, principal Principal) ([]dto.AssignmentResponse, error) {
	assignments, err := s.repo.FindAllByOwner(ctx, principal.UserID)
	if err != nil {
		return nil, unavailable("list assignments", err)
	}

	return dto.NewAssignmentResponseSlice(assignments), nil
}

func (s *assignmentService) Get(ctx context.Context, principal Principal, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.loadOwned(ctx, principal, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Create(ctx context.Context, principal Principal, body []byte) (dto.AssignmentResponse, error) {
	doc, err := decodeJSON(body)
	if err != nil {
		return dto.AssignmentResponse{}, invalid("body", "request body must be a JSON object")
	}
	if err := assignmentCreateValidator.Validate(doc); err != nil {
		return dto.AssignmentResponse{}, schemaViolation(err)
	}

	fields := doc.(map[string]interface{})
	var payload dto.AssignmentCreateRequest
	payload.Name, _ = fields["name"].(string)
	payload.Deadline, _ = fields["deadline"].(string)
	points, pointsOK := parseInteger(fields["points"])
	attempts, attemptsOK := parseInteger(fields["num_of_attempts"])
	if !pointsOK || !attemptsOK {
		return dto.AssignmentResponse{}, invalid("body", "points and num_of_attempts must be whole numbers")
	}
	payload.Points = points
	payload.NumOfAttempts = attempts

	deadline, ok := ParseDeadline(payload.Deadline)
	if !ok {
		return dto.AssignmentResponse{}, invalid("deadline", "deadline must be an ISO 8601 timestamp")
	}

	name, ok := normalizeName(payload.Name)
	if !ok {
		return dto.AssignmentResponse{}, invalid("name", "name must not be empty")
	}

	now := s.now().UTC()
	assignment := models.Assignment{
		Name:          name,
		Points:        payload.Points,
		NumOfAttempts: payload.NumOfAttempts,
		Deadline:      deadline,
		OwnerUserID:   principal.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, unavailable("create assignment", err)
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("owner_user_id", principal.UserID).Msg("assignment created")
	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, principal Principal, id uint, body []byte) error {
	assignment, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if s.enforceUpdateOwner && !assignment.OwnedBy(principal.UserID) {
		return ErrForbidden
	}

	payload, err := s.parseUpdate(body)
	if err != nil {
		return err
	}

	assignment.Name = payload.Name
	assignment.Points = payload.Points
	assignment.NumOfAttempts = payload.NumOfAttempts
	assignment.Deadline = payload.Deadline
	assignment.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, &assignment); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return unavailable("update assignment", err)
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment updated")
	return nil
}

func (s *assignmentService) Delete(ctx context.Context, principal Principal, id uint) error {
	if _, err := s.loadOwned(ctx, principal, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return unavailable("delete assignment", err)
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

func (s *assignmentService) find(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, unavailable("load assignment", err)
	}
	return assignment, nil
}

func (s *assignmentService) loadOwned(ctx context.Context, principal Principal, id uint) (models.Assignment, error) {
	assignment, err := s.find(ctx, id)
	if err != nil {
		return models.Assignment{}, err
	}
	if !assignment.OwnedBy(principal.UserID) {
		return models.Assignment{}, ErrForbidden
	}
	return assignment, nil
}

// parseUpdate checks the PUT fields in a fixed order and reports the first failure.
func (s *assignmentService) parseUpdate(body []byte) (dto.AssignmentUpdateRequest, error) {
	var payload dto.AssignmentUpdateRequest

	doc, err := decodeJSON(body)
	if err != nil {
		return payload, invalid("body", "request body must be a JSON object")
	}
	fields, ok := doc.(map[string]interface{})
	if !ok {
		return payload, invalid("body", "request body must be a JSON object")
	}

	name, present := fields["name"]
	if !present || name == nil {
		return payload, invalid("name", "name is required and cannot be null.")
	}
	nameText, isText := name.(string)
	payload.Name, ok = normalizeName(nameText)
	if !isText || !ok || s.validator.StructPartial(payload, "Name") != nil {
		return payload, invalid("name", "name must be a non-empty string.")
	}

	points, present := fields["points"]
	if !present || points == nil {
		return payload, invalid("points", "points is required and cannot be null.")
	}
	payload.Points, ok = parseInteger(points)
	if !ok || s.validator.StructPartial(payload, "Points") != nil {
		return payload, invalid("points", "Invalid value for points. It must be an integer between 1 and 10.")
	}

	attempts, present := fields["num_of_attempts"]
	if !present || attempts == nil {
		return payload, invalid("num_of_attempts", "num_of_attempts is required and cannot be null.")
	}
	payload.NumOfAttempts, ok = parseInteger(attempts)
	if !ok || s.validator.StructPartial(payload, "NumOfAttempts") != nil {
		return payload, invalid("num_of_attempts", "Invalid value for num_of_attempts. It must be an integer greater than or equal to 1.")
	}

	deadline, present := fields["deadline"]
	if !present || deadline == nil {
		return payload, invalid("deadline", "deadline is required and cannot be null.")
	}
	deadlineText, _ := deadline.(string)
	payload.Deadline, ok = ParseDeadline(deadlineText)
	if !ok || s.validator.StructPartial(payload, "Deadline") != nil {
		return payload, invalid("deadline", "Invalid value for deadline. It must be an ISO 8601 timestamp.")
	}

	return payload, nil
}

func decodeJSON(body []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var doc interface{}
	if err := decoder.Decode(&doc); err != nil {
		return nil, err
	}
	if _, ok := doc.(map[string]interface{}); !ok {
		return nil, errors.New("json object expected")
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after json object")
	}
	return doc, nil
}

// parseInteger accepts a JSON integer (including integral forms such as 5.0)
// or a string holding one.
func parseInteger(value interface{}) (int, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return 0, false
		}
		return int(f), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func schemaViolation(err error) error {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return invalid("body", err.Error())
	}

	leaf := verr
	for len(leaf.Causes) > 0 {
		leaf = leaf.Causes[0]
	}

	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if field == "" {
		return invalid("body", leaf.Message)
	}
	return invalid(field, fmt.Sprintf("Invalid value for %s: %s", field, leaf.Message))
}
