package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/noah-isme/gema-assignments-api/internal/config"
	"github.com/noah-isme/gema-assignments-api/internal/handler"
	"github.com/noah-isme/gema-assignments-api/internal/middleware"
	"github.com/noah-isme/gema-assignments-api/internal/models"
	"github.com/noah-isme/gema-assignments-api/internal/repository"
	"github.com/noah-isme/gema-assignments-api/internal/router"
	"github.com/noah-isme/gema-assignments-api/internal/service"
)

const (
	janeEmail = "jane@example.com"
	johnEmail = "john@example.com"
	password  = "hunter2"
)

type testApp struct {
	app *fiber.App
	db  *gorm.DB
}

type appOptions struct {
	notifier service.Notifier
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func setupApp(t *testing.T, opts appOptions) testApp {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Assignment{}, &models.Submission{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	logger := testLogger()
	userRepo := repository.NewUserRepository(db)
	for _, email := range []string{janeEmail, johnEmail} {
		hash, err := service.HashPassword(password, bcrypt.MinCost)
		require.NoError(t, err)
		_, err = userRepo.CreateIfAbsent(context.Background(), &models.User{Email: email, PasswordHash: hash})
		require.NoError(t, err)
	}

	notifier := opts.notifier
	if notifier == nil {
		notifier = service.NewLogNotifier(logger)
	}

	validate := service.NewValidator()
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)

	assignmentService := service.NewAssignmentService(assignmentRepo, validate, true, logger)
	submissionService := service.NewSubmissionService(submissionRepo, assignmentRepo, validate, nil, notifier, service.SubmissionOptions{Topic: "submissions"}, logger)
	authenticator := service.NewAuthenticator(userRepo, logger)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger, RequestTimeout: 5 * time.Second})
	router.Register(app, config.Config{AppName: "Test"}, router.Dependencies{
		HealthHandler:     handler.NewHealthHandler(repository.NewHealthRepository(db), logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, logger),
		AuthMiddleware:    middleware.BasicAuth(authenticator, logger),
		SubmissionLimiter: middleware.RateLimit("submissions", 100, time.Minute),
	})

	return testApp{app: app, db: db}
}

func (a testApp) userID(t *testing.T, email string) uint {
	t.Helper()
	var user models.User
	require.NoError(t, a.db.Where("email = ?", email).First(&user).Error)
	return user.ID
}

func (a testApp) do(t *testing.T, method, path, email, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(email+":"+password)))
	}

	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	decode(t, resp, &payload)
	return payload.Error
}

func assignmentBody(attempts int, deadline time.Time) string {
	body, _ := json.Marshal(map[string]interface{}{
		"name":            "HW1",
		"points":          5,
		"num_of_attempts": attempts,
		"deadline":        deadline.UTC().Format(time.RFC3339),
	})
	return string(body)
}
