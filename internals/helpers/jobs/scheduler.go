// file: internals/helpers/jobs/scheduler.go
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper drops expired cache entries.
type Sweeper interface {
	Sweep() int
}

// UploadLogPruner deletes upload history older than the cutoff.
type UploadLogPruner interface {
	PruneUploadLogs(ctx context.Context, before time.Time) (int64, error)
}

type Config struct {
	SweepSchedule     string
	RetentionSchedule string
	RetentionDays     int
}

// Start registers the housekeeping jobs and starts the scheduler. Callers
// stop it with Stop() on shutdown. A nil dependency skips its job.
func Start(cfg Config, sweeper Sweeper, pruner UploadLogPruner, log *zap.Logger) (*cron.Cron, error) {
	cl := cronLogger{log.Named("cron").Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if sweeper != nil && cfg.SweepSchedule != "" {
		if _, err := c.AddFunc(cfg.SweepSchedule, func() {
			if n := sweeper.Sweep(); n > 0 {
				log.Debug("cache sweep", zap.Int("evicted", n))
			}
		}); err != nil {
			return nil, fmt.Errorf("schedule cache sweep %q: %w", cfg.SweepSchedule, err)
		}
	}

	if pruner != nil && cfg.RetentionDays > 0 && cfg.RetentionSchedule != "" {
		retention := time.Duration(cfg.RetentionDays) * 24 * time.Hour
		if _, err := c.AddFunc(cfg.RetentionSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 4*time.Minute)
			defer cancel()
			n, err := pruner.PruneUploadLogs(ctx, time.Now().Add(-retention))
			if err != nil {
				log.Error("upload log pruning failed", zap.Error(err))
				return
			}
			log.Info("upload logs pruned", zap.Int64("deleted", n), zap.Int("retention_days", cfg.RetentionDays))
		}); err != nil {
			return nil, fmt.Errorf("schedule upload log retention %q: %w", cfg.RetentionSchedule, err)
		}
	}

	log.Info("scheduler started",
		zap.String("sweep", cfg.SweepSchedule),
		zap.String("retention", cfg.RetentionSchedule),
		zap.Int("retention_days", cfg.RetentionDays))
	c.Start()
	return c, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
