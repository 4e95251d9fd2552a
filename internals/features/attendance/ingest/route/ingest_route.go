// file: internals/features/attendance/ingest/route/ingest_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"attendance_backend/internals/features/attendance/ingest/controller"
	"attendance_backend/internals/features/attendance/ingest/service"
)

// IngestUserRoutes mounts the upload endpoint.
//
//	user := app.Group("/api/u", auth)
//	route.IngestUserRoutes(user, svc, maxBytes, uploadLimiter, log)
func IngestUserRoutes(user fiber.Router, svc *service.Service, maxFileBytes int64, limiter fiber.Handler, log *zap.Logger) {
	ctl := controller.NewIngestController(svc, maxFileBytes, log)
	g := user.Group("/attendance")

	if limiter != nil {
		g.Post("/upload", limiter, ctl.Upload)
		return
	}
	g.Post("/upload", ctl.Upload)
}
