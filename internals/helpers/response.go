package helper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validate is the shared validator instance.
var Validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError turns validator.ValidationErrors into a 422 response keyed by
// field path; any other error is a plain 400.
func ValidationError(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return JsonError(c, fiber.StatusBadRequest, "invalid input")
	}
	fields := make(map[string][]string, len(ve))
	for _, fe := range ve {
		key := strings.ToLower(fe.Field())
		fields[key] = append(fields[key], describeRule(fe))
	}
	return JsonValidationError(c, fields)
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
