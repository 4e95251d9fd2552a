package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/utils"
	"go.uber.org/zap"
)

const HeaderRequestID = "X-Request-ID"

// RequestID propagates or mints X-Request-ID and stores it in c.Locals("reqid").
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(HeaderRequestID)
		if id == "" {
			id = utils.UUID()
		}
		c.Set(HeaderRequestID, id)
		c.Locals("reqid", id)
		return c.Next()
	}
}

// LoggerMiddleware writes one access line per request.
func LoggerMiddleware(log *zap.Logger) fiber.Handler {
	log = log.Named("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		fields := []zap.Field{
			zap.Any("request_id", c.Locals("reqid")),
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
		}
		if uid, ok := c.Locals("user_id").(string); ok {
			fields = append(fields, zap.String("user_id", uid))
		}
		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
		return err
	}
}
