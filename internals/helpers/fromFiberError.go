package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// FromFiberError renders a *fiber.Error with its own status and message.
// Anything else becomes a 500 without leaking the cause.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	return JsonError(c, fiber.StatusInternalServerError, "internal server error")
}
