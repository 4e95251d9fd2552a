package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"attendance_backend/internals/configs"
	database "attendance_backend/internals/databases"
	ingestService "attendance_backend/internals/features/attendance/ingest/service"
	recordsService "attendance_backend/internals/features/attendance/records/service"
	helper "attendance_backend/internals/helpers"
	"attendance_backend/internals/helpers/cache"
	"attendance_backend/internals/helpers/jobs"
	middlewares "attendance_backend/internals/middlewares"
	routes "attendance_backend/internals/route"
)

func main() {
	configs.LoadEnv()

	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := configs.NewLogger(cfg.IsProduction())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	// DB connect + pool + schema
	db, err := database.ConnectDB(cfg.DB, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	if err := database.TunePool(db, cfg.DB); err != nil {
		logger.Fatal("database pool", zap.Error(err))
	}
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(bootCtx, db); err != nil {
		cancelBoot()
		logger.Fatal("schema bootstrap", zap.Error(err))
	}
	cancelBoot()

	// Services
	statsCache := cache.NewMemory()
	ingest := ingestService.NewService(ingestService.NewGormStore(db), statsCache, cfg.Ingest, cfg.Layout, logger)
	records := recordsService.NewService(recordsService.NewGormStore(db), statsCache, cfg.Cache, cfg.DB.AcquireTimeout, logger)

	// Scheduler after DB is ready
	sched, err := jobs.Start(jobs.Config{
		SweepSchedule:     cfg.Cache.SweepSchedule,
		RetentionSchedule: cfg.Retention.Schedule,
		RetentionDays:     cfg.Retention.UploadLogDays,
	}, statsCache, ingest, logger)
	if err != nil {
		logger.Fatal("scheduler", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		DisableStartupMessage: true,
		BodyLimit:             bodyLimit(cfg.Ingest),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helper.FromFiberError(c, err)
		},
	})

	middlewares.SetupMiddlewares(app, cfg.CorsOrigins, logger)
	routes.SetupRoutes(app, routes.Deps{
		DB:      db,
		Config:  cfg,
		Ingest:  ingest,
		Records: records,
		Log:     logger,
	})

	// Keep-Alive & connection timeouts; uploads need a generous write window.
	app.Server().ReadTimeout = 60 * time.Second
	app.Server().WriteTimeout = 120 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen("0.0.0.0:" + cfg.Port); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown: stop cron, drain HTTP, close pool
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	<-sched.Stop().Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)
	database.Close(db)
}

// bodyLimit allows a full batch plus multipart overhead, capped at 512 MiB.
func bodyLimit(p configs.IngestPolicy) int {
	const ceiling = 512 << 20
	n := p.MaxFileBytes*int64(max(p.MaxFiles, 1)) + 1<<20
	if n <= 0 || n > ceiling {
		return ceiling
	}
	return int(n)
}
