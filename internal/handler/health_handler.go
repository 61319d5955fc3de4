package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assignments-api/internal/repository"
)

// HealthHandler reports whether the store is reachable.
type HealthHandler struct {
	store  repository.HealthRepository
	logger zerolog.Logger
}

// NewHealthHandler constructs the health handler.
func NewHealthHandler(store repository.HealthRepository, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		logger: logger.With().Str("component", "health_handler").Logger(),
	}
}

// Register attaches /healthz. fiber answers HEAD with the GET handler.
func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/healthz", h.check)
	router.All("/healthz", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-cache")
		return MethodNotAllowed(c)
	})
}

func (h *HealthHandler) check(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "no-cache")

	if c.Request().Header.ContentLength() > 0 || len(c.Body()) > 0 || len(c.Context().QueryArgs().QueryString()) > 0 {
		return c.Status(fiber.StatusBadRequest).Send(nil)
	}

	if err := h.store.Ping(c.UserContext()); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("database ping failed")
		return c.Status(fiber.StatusServiceUnavailable).Send(nil)
	}

	return c.Status(fiber.StatusOK).Send(nil)
}
