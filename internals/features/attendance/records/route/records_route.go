// file: internals/features/attendance/records/route/records_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"attendance_backend/internals/features/attendance/records/controller"
	"attendance_backend/internals/features/attendance/records/service"
)

// RecordsUserRoutes mounts read, export and delete endpoints under /attendance.
func RecordsUserRoutes(user fiber.Router, svc *service.Service, log *zap.Logger) {
	ctl := controller.NewRecordsController(svc, nil, log)
	g := user.Group("/attendance")

	// Read
	g.Get("/records", ctl.List)
	g.Get("/stats", ctl.Stats)
	g.Get("/stats/filtered", ctl.FilteredStats)
	g.Get("/courses", ctl.Courses)
	g.Get("/uploads", ctl.Uploads)
	g.Get("/export", ctl.Export)

	// Delete
	g.Delete("/records/:id", ctl.Delete)
	g.Delete("/clear", ctl.Clear)
}
