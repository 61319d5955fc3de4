package middleware

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestTimeout bounds the user context of every request so store and broker calls give up in time.
func RequestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if timeout <= 0 {
			return c.Next()
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)

		return c.Next()
	}
}
