package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/gema-assignments-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Assignment{}, &models.Submission{}))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "hash", FirstName: "Test", LastName: "User"}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedAssignment(t *testing.T, db *gorm.DB, ownerID uint, attempts int) models.Assignment {
	t.Helper()
	assignment := models.Assignment{
		Name:          "HW1",
		Points:        5,
		NumOfAttempts: attempts,
		Deadline:      time.Now().Add(24 * time.Hour),
		OwnerUserID:   ownerID,
	}
	require.NoError(t, db.Create(&assignment).Error)
	return assignment
}

func newSubmission(assignmentID, submitterID uint) *models.Submission {
	now := time.Now()
	return &models.Submission{
		ID:                uuid.NewString(),
		AssignmentID:      assignmentID,
		SubmitterID:       submitterID,
		SubmissionURL:     "https://example.com/hw1.zip",
		SubmissionDate:    now,
		SubmissionUpdated: now,
	}
}
