package handler

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assignments-api/internal/dto"
	"github.com/noah-isme/gema-assignments-api/internal/middleware"
	"github.com/noah-isme/gema-assignments-api/internal/service"
	"github.com/noah-isme/gema-assignments-api/internal/utils"
)

// SubmissionHandler exposes submission endpoints nested under an assignment.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler constructs a submission handler.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission routes. limiter runs after auth so it can key on the user.
func (h *SubmissionHandler) Register(router fiber.Router, auth, limiter fiber.Handler) {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Post("/:id/submission", auth, limiter, h.create)
	router.Get("/:id/submission", middleware.RejectBody(), middleware.RejectQuery(), auth, h.list)
	router.All("/:id/submission", MethodNotAllowed)
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	log := requestLogger(h.logger, c)
	p, err := principal(c)
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}

	var payload dto.SubmissionCreateRequest
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return writeError(c, log, service.MissingSubmissionURL(), msgForbiddenAccess)
	}

	submission, err := h.service.Submit(c.UserContext(), p, assignmentID, payload)
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}

	log.Info().Str("submission_id", submission.ID).Uint("assignment_id", assignmentID).Msg("submission created")
	return utils.SendData(c, fiber.StatusCreated, submission)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	log := requestLogger(h.logger, c)
	p, err := principal(c)
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}

	submissions, err := h.service.List(c.UserContext(), p, assignmentID)
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}

	return utils.SendData(c, fiber.StatusOK, submissions)
}
