package handler

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assignments-api/internal/middleware"
	"github.com/noah-isme/gema-assignments-api/internal/service"
	"github.com/noah-isme/gema-assignments-api/internal/utils"
)

const (
	msgAssignmentNotFound = "Assignment not found"
	msgUnavailable        = "Service Unavailable"
	msgMethodNotAllowed   = "Method Not Allowed"
)

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// principal is always set on routes guarded by BasicAuth; a missing one means the route was wired without it.
func principal(c *fiber.Ctx) (service.Principal, error) {
	p, ok := middleware.PrincipalFromContext(c)
	if !ok {
		return service.Principal{}, service.ErrUnauthorized
	}
	return p, nil
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := c.Params(name)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, service.ErrAssignmentNotFound
	}
	return uint(parsed), nil
}

// writeError maps service errors onto status codes. forbidden is the 403 message for the calling route.
func writeError(c *fiber.Ctx, log *zerolog.Logger, err error, forbidden string) error {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		log.Warn().Str("field", validationErr.Field).Msg(validationErr.Message)
		return utils.SendError(c, fiber.StatusBadRequest, validationErr.Message)
	case errors.Is(err, service.ErrDeadlinePassed):
		log.Warn().Msg("submission after deadline")
		return utils.SendError(c, fiber.StatusBadRequest, "Deadline for this assignment has passed")
	case errors.Is(err, service.ErrRetryLimitExceeded):
		log.Warn().Msg("retry limit exceeded")
		return utils.SendError(c, fiber.StatusBadRequest, "Retry limit exceeded")
	case errors.Is(err, service.ErrUnauthorized):
		log.Warn().Msg("unauthenticated request")
		return utils.SendError(c, fiber.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrForbidden):
		log.Warn().Msg("permission denied")
		return utils.SendError(c, fiber.StatusForbidden, forbidden)
	case errors.Is(err, service.ErrAssignmentNotFound):
		log.Warn().Msg("assignment not found")
		return utils.SendError(c, fiber.StatusNotFound, msgAssignmentNotFound)
	default:
		log.Error().Err(err).Msg("dependency failure")
		return utils.SendError(c, fiber.StatusServiceUnavailable, msgUnavailable)
	}
}

// MethodNotAllowed answers verbs a path does not support.
func MethodNotAllowed(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusMethodNotAllowed, msgMethodNotAllowed)
}
