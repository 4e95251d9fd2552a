package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const LocUserID = "user_id"

// GetUserIDFromToken reads c.Locals("user_id") set by the auth middleware.
// 401 when missing, 400 when malformed.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	v := c.Locals(LocUserID)
	if v == nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "not logged in")
	}

	var raw string
	switch t := v.(type) {
	case uuid.UUID:
		if t == uuid.Nil {
			return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "not logged in")
		}
		return t, nil
	case string:
		raw = t
	case []byte:
		raw = string(t)
	default:
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id in token")
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "not logged in")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid user id in token")
	}
	return id, nil
}
