package dto

import (
	"time"

	"github.com/noah-isme/gema-assignments-api/internal/models"
)

// AssignmentCreateRequest is the allow-listed create payload after schema validation.
type AssignmentCreateRequest struct {
	Name          string `json:"name"`
	Points        int    `json:"points"`
	NumOfAttempts int    `json:"num_of_attempts"`
	Deadline      string `json:"deadline"`
}

// AssignmentUpdateRequest is the full-replace payload used by PUT. Field order
// matches the order in which validation failures are reported.
type AssignmentUpdateRequest struct {
	Name          string    `json:"name" validate:"required"`
	Points        int       `json:"points" validate:"gte=1,lte=10"`
	NumOfAttempts int       `json:"num_of_attempts" validate:"gte=1"`
	Deadline      time.Time `json:"deadline" validate:"required"`
}

// AssignmentResponse is the serialized representation returned to API clients.
type AssignmentResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Points        int       `json:"points"`
	NumOfAttempts int       `json:"num_of_attempts"`
	Deadline      time.Time `json:"deadline"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	OwnerUserID   uint      `json:"owner_user_id"`
}

// NewAssignmentResponse converts a model into a DTO.
func NewAssignmentResponse(model models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:            model.ID,
		Name:          model.Name,
		Points:        model.Points,
		NumOfAttempts: model.NumOfAttempts,
		Deadline:      model.Deadline,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
		OwnerUserID:   model.OwnerUserID,
	}
}

// NewAssignmentResponseSlice converts a slice of models into DTOs.
func NewAssignmentResponseSlice(assignments []models.Assignment) []AssignmentResponse {
	responses := make([]AssignmentResponse, 0, len(assignments))
	for _, assignment := range assignments {
		responses = append(responses, NewAssignmentResponse(assignment))
	}

	return responses
}
