package models

import "time"

// Assignment is owned by the user who created it. OwnerUserID never changes.
type Assignment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Points        int       `gorm:"not null" json:"points"`
	NumOfAttempts int       `gorm:"not null" json:"num_of_attempts"`
	Deadline      time.Time `gorm:"not null" json:"deadline"`
	OwnerUserID   uint      `gorm:"not null;index" json:"owner_user_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsPastDue reports whether reference is at or after the deadline.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return !reference.Before(a.Deadline)
}

// OwnedBy reports whether userID owns the assignment.
func (a Assignment) OwnedBy(userID uint) bool {
	return a.OwnerUserID == userID
}
