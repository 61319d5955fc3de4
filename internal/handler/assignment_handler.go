package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assignments-api/internal/middleware"
	"github.com/noah-isme/gema-assignments-api/internal/service"
	"github.com/noah-isme/gema-assignments-api/internal/utils"
)

const (
	msgForbiddenAccess = "Permission denied. You can only access your own assignments."
	msgForbiddenDelete = "Permission denied. You can only delete your own assignments."
	msgForbiddenUpdate = "Permission denied. You can only update your own assignments."
)

// AssignmentHandler wires assignment HTTP routes.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group. PATCH is refused before authentication.
func (h *AssignmentHandler) Register(router fiber.Router, auth fiber.Handler) {
	router.Get("", middleware.RejectBody(), middleware.RejectQuery(), auth, h.list)
	router.Post("", auth, h.create)
	router.All("", MethodNotAllowed)

	router.Patch("/:id", h.patch)
	router.Get("/:id", middleware.RejectBody(), middleware.RejectQuery(), auth, h.get)
	router.Delete("/:id", middleware.RejectBody(), middleware.RejectQuery(), auth, h.delete)
	router.Put("/:id", auth, h.update)
	router.All("/:id", MethodNotAllowed)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	log := requestLogger(h.logger, c)
	p, err := principal(c)
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}

	assignments, err := h.service.List(c.UserContext(), p)
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}

	return utils.SendData(c, fiber.StatusOK, assignments)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	log := requestLogger(h.logger, c)
	p, err := principal(c)
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}

	assignment, err := h.service.Get(c.UserContext(), p, id)
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}

	return utils.SendData(c, fiber.StatusOK, assignment)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	log := requestLogger(h.logger, c)
	p, err := principal(c)
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}

	assignment, err := h.service.Create(c.UserContext(), p, c.Body())
	if err != nil {
		return writeError(c, log, err, msgForbiddenAccess)
	}

	return utils.SendData(c, fiber.StatusCreated, assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	log := requestLogger(h.logger, c)
	p, err := principal(c)
	if err != nil {
		return writeError(c, log, err, msgForbiddenUpdate)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return writeError(c, log, err, msgForbiddenUpdate)
	}

	if err := h.service.Update(c.UserContext(), p, id, c.Body()); err != nil {
		return writeError(c, log, err, msgForbiddenUpdate)
	}

	return utils.SendNoContent(c)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	log := requestLogger(h.logger, c)
	p, err := principal(c)
	if err != nil {
		return writeError(c, log, err, msgForbiddenDelete)
	}
	id, err := parseUintParam(c, "id")
	if err != nil {
		return writeError(c, log, err, msgForbiddenDelete)
	}

	if err := h.service.Delete(c.UserContext(), p, id); err != nil {
		return writeError(c, log, err, msgForbiddenDelete)
	}

	return utils.SendMessage(c, fiber.StatusOK, "Assignment successfully deleted")
}

func (h *AssignmentHandler) patch(c *fiber.Ctx) error {
	requestLogger(h.logger, c).Warn().Msg("update (PATCH) is not allowed")
	return utils.SendError(c, fiber.StatusMethodNotAllowed, "Update (PATCH) is not allowed")
}
