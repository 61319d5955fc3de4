package models

import "time"

// Submission is one admitted attempt at an assignment.
type Submission struct {
	ID                string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	AssignmentID      uint      `gorm:"not null;index:idx_submissions_attempts,priority:1" json:"assignment_id"`
	SubmitterID       uint      `gorm:"not null;index:idx_submissions_attempts,priority:2" json:"submitter_id"`
	SubmissionURL     string    `gorm:"size:2048;not null" json:"submission_url"`
	SubmissionDate    time.Time `gorm:"not null" json:"submission_date"`
	SubmissionUpdated time.Time `gorm:"not null" json:"submission_updated"`
}
