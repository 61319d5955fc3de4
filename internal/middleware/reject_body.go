package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-assignments-api/internal/utils"
)

// RejectBody answers 400 when a request that takes no payload carries one.
func RejectBody() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if hasBody(c) {
			return utils.SendError(c, fiber.StatusBadRequest, "Request body is not allowed")
		}
		return c.Next()
	}
}

// RejectQuery answers 400 when the request has any query string.
func RejectQuery() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(c.Context().QueryArgs().QueryString()) > 0 {
			return utils.SendError(c, fiber.StatusBadRequest, "Query parameters are not allowed")
		}
		return c.Next()
	}
}

func hasBody(c *fiber.Ctx) bool {
	return c.Request().Header.ContentLength() > 0 || len(c.Body()) > 0
}
