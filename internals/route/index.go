// file: internals/route/index.go
package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"attendance_backend/internals/configs"
	ingestRoute "attendance_backend/internals/features/attendance/ingest/route"
	ingestService "attendance_backend/internals/features/attendance/ingest/service"
	recordsRoute "attendance_backend/internals/features/attendance/records/route"
	recordsService "attendance_backend/internals/features/attendance/records/service"
	"attendance_backend/internals/middlewares"
	"attendance_backend/internals/middlewares/auth"
)

var startTime time.Time

// Deps is what the HTTP layer needs from main.
type Deps struct {
	DB      *gorm.DB
	Config  configs.Config
	Ingest  *ingestService.Service
	Records *recordsService.Service
	Log     *zap.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()

	// ===================== PUBLIC =====================
	d.Log.Info("setting up base routes")
	BaseRoutes(app, d.DB, d.Config.Env)

	// ===================== PRIVATE (USER) =====================
	d.Log.Info("setting up /api/u routes")
	user := app.Group("/api/u", auth.AuthMiddleware(d.Config.JWTSecret, d.Log))

	ingestRoute.IngestUserRoutes(user, d.Ingest, d.Config.Ingest.MaxFileBytes, middlewares.UploadRateLimiter(), d.Log)
	recordsRoute.RecordsUserRoutes(user, d.Records, d.Log)
}
