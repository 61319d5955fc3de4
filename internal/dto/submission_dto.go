package dto

import (
	"time"

	"github.com/noah-isme/gema-assignments-api/internal/models"
)

// SubmissionCreateRequest carries the submitted URL.
type SubmissionCreateRequest struct {
	SubmissionURL string `json:"submission_url" validate:"required,submission_url"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID                string    `json:"id"`
	AssignmentID      uint      `json:"assignment_id"`
	SubmitterID       uint      `json:"submitter_id"`
	SubmissionURL     string    `json:"submission_url"`
	SubmissionDate    time.Time `json:"submission_date"`
	SubmissionUpdated time.Time `json:"submission_updated"`
}

// SubmissionEvent is the message published after a submission is admitted.
// Consumers may see it more than once; SubmissionID identifies duplicates.
type SubmissionEvent struct {
	AssignmentID  uint   `json:"assignmentId"`
	SubmissionID  string `json:"submissionId"`
	SubmissionURL string `json:"submissionUrl"`
	UserEmail     string `json:"userEmail"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:                model.ID,
		AssignmentID:      model.AssignmentID,
		SubmitterID:       model.SubmitterID,
		SubmissionURL:     model.SubmissionURL,
		SubmissionDate:    model.SubmissionDate,
		SubmissionUpdated: model.SubmissionUpdated,
	}
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(models []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(models))
	for _, submission := range models {
		responses = append(responses, NewSubmissionResponse(submission))
	}

	return responses
}
