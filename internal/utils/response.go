package utils

import "github.com/gofiber/fiber/v2"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is returned by operations that have no record to show.
type MessageResponse struct {
	Message string `json:"message"`
}

// SendData writes data as the bare JSON body with the given status.
func SendData(c *fiber.Ctx, status int, data interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(data)
}

// SendMessage writes a {"message": ...} body.
func SendMessage(c *fiber.Ctx, status int, message string) error {
	return SendData(c, status, MessageResponse{Message: message})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(ErrorResponse{Error: message})
}

// SendNoContent finishes the request with an empty body.
func SendNoContent(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNoContent).Send(nil)
}
