package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	correlationHeader   = "X-Correlation-ID"
	correlationLocalKey = "correlation_id"
	maxCorrelationLen   = 128
)

// CorrelationID tags every request with an identifier that is echoed in the
// response and attached to request logs. Inbound X-Correlation-ID or
// X-Request-ID values are reused when they are short printable tokens.
func CorrelationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := acceptedCorrelationID(c.Get(correlationHeader))
		if id == "" {
			id = acceptedCorrelationID(c.Get(fiber.HeaderXRequestID))
		}
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(correlationLocalKey, id)
		c.Set(correlationHeader, id)

		return c.Next()
	}
}

// GetCorrelationID returns the identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	id, _ := c.Locals(correlationLocalKey).(string)
	return id
}

func acceptedCorrelationID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxCorrelationLen {
		return ""
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return ""
		}
	}
	return id
}
