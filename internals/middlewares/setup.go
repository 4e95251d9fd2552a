package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"go.uber.org/zap"

	"attendance_backend/internals/middlewares/logger"
)

// SetupMiddlewares installs the global chain. Order: request id, recover,
// access log, cors, limiter, compression.
func SetupMiddlewares(app *fiber.App, corsOrigins string, log *zap.Logger) {
	app.Use(logger.RequestID())
	app.Use(RecoveryMiddleware(log))
	app.Use(logger.LoggerMiddleware(log))
	app.Use(CorsMiddleware(corsOrigins))
	app.Use(GlobalRateLimiter())
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
}
