package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// RecoveryMiddleware turns panics into 500s and logs them with the request id.
func RecoveryMiddleware(log *zap.Logger) fiber.Handler {
	return recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
			log.Error("panic recovered",
				zap.Any("panic", e),
				zap.String("path", c.Path()),
				zap.Any("request_id", c.Locals("reqid")),
				zap.Stack("stack"),
			)
		},
	})
}
