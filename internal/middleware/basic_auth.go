package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-assignments-api/internal/service"
	"github.com/noah-isme/gema-assignments-api/internal/utils"
)

const principalKey = "principal"

// BasicAuth resolves the Authorization header into a principal and stores it on the request.
func BasicAuth(auth service.Authenticator, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "basic_auth").Logger()

	return func(c *fiber.Ctx) error {
		principal, err := auth.Authenticate(c.UserContext(), c.Get(fiber.HeaderAuthorization))
		if err != nil {
			if errors.Is(err, service.ErrServiceUnavailable) {
				log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("authentication backend unavailable")
				return utils.SendError(c, fiber.StatusServiceUnavailable, "Service Unavailable")
			}
			log.Warn().Str("correlation_id", GetCorrelationID(c)).Str("path", c.Path()).Msg("authentication failed")
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="assignments"`)
			return utils.SendError(c, fiber.StatusUnauthorized, "Unauthorized")
		}

		c.Locals(principalKey, principal)
		c.Locals("user_id", principal.UserID)
		return c.Next()
	}
}

// PrincipalFromContext returns the principal stored by BasicAuth.
func PrincipalFromContext(c *fiber.Ctx) (service.Principal, bool) {
	principal, ok := c.Locals(principalKey).(service.Principal)
	return principal, ok
}
