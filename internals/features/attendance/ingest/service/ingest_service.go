// file: internals/features/attendance/ingest/service/ingest_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"attendance_backend/internals/configs"
	"attendance_backend/internals/features/attendance/ingest/dto"
	"attendance_backend/internals/features/attendance/records/model"
	"attendance_backend/internals/features/attendance/sheets"
	"attendance_backend/internals/helpers/cache"
)

var (
	ErrNoFiles        = errors.New("no files uploaded")
	ErrTooManyFiles   = errors.New("too many files in one upload")
	ErrFileTooLarge   = errors.New("file too large")
	ErrAllFilesFailed = errors.New("no file could be processed")
)

type UploadFile struct {
	Filename string
	Data     []byte
}

// FileError is a per-file failure. Reason is safe to show to the user; Err
// keeps the cause for logs.
type FileError struct {
	Filename string
	Reason   string
	Err      error
}

func (e *FileError) Error() string { return e.Filename + ": " + e.Reason }
func (e *FileError) Unwrap() error { return e.Err }

type Service struct {
	store      Store
	cache      cache.Cache
	parser     *sheets.Parser
	reconciler *Reconciler
	committer  *Committer
	retry      RetryPolicy
	policy     configs.IngestPolicy
	log        *zap.Logger
	now        func() time.Time
}

func NewService(store Store, c cache.Cache, policy configs.IngestPolicy, layout configs.LayoutPolicy, log *zap.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	log = log.Named("ingest")
	detector := sheets.NewHeaderScanDetector(layout.CourseRowFrom, layout.CourseRowTo, layout.FallbackDataRow)
	return &Service{
		store:      store,
		cache:      c,
		parser:     sheets.NewParser(detector, policy.MaxConductedPeriods),
		reconciler: NewReconciler(log),
		committer:  NewCommitter(policy.MinConductedPeriods, policy.ExistingPairChunk, policy.InsertBatchSize, log),
		retry:      RetryPolicy{MaxAttempts: policy.RetryAttempts, Delay: policy.RetryDelay},
		policy:     policy,
		log:        log,
		now:        time.Now,
	}
}

// WithDetector swaps the layout strategy for sheets that follow another
// export convention.
func (s *Service) WithDetector(d sheets.LayoutDetector) *Service {
	s.parser.Detector = d
	return s
}

// WithRetry overrides the retry policy (tests use a fake timer).
func (s *Service) WithRetry(p RetryPolicy) *Service {
	s.retry = p
	return s
}

/* =========================================================
   Batch driver
   ========================================================= */

// IngestBatch processes files one after another. Each file commits on its own,
// so a failure never rolls back an earlier file. The error is non-nil only
// when every file failed or the request itself is invalid.
func (s *Service) IngestBatch(ctx context.Context, userID uuid.UUID, files []UploadFile) (dto.BatchResult, error) {
	var res dto.BatchResult
	if len(files) == 0 {
		return res, ErrNoFiles
	}
	if s.policy.MaxFiles > 0 && len(files) > s.policy.MaxFiles {
		return res, fmt.Errorf("%w: %d (max %d)", ErrTooManyFiles, len(files), s.policy.MaxFiles)
	}

	var failures []string
	for _, f := range files {
		var fr dto.FileResult
		if err := ctx.Err(); err != nil {
			fr = dto.FileResult{Filename: f.Filename, Error: "upload cancelled"}
		} else {
			fr, _ = s.IngestFile(ctx, userID, f)
		}
		res.Files = append(res.Files, fr)
		if fr.Success {
			res.Succeeded++
		} else {
			res.Failed++
			failures = append(failures, fr.Filename+": "+fr.Error)
		}
	}

	if res.Succeeded == 0 {
		return res, fmt.Errorf("%w: %s", ErrAllFilesFailed, strings.Join(failures, "; "))
	}
	return res, nil
}

/* =========================================================
   Single file
   ========================================================= */

// IngestFile parses one upload and commits it inside a retried transaction.
// The returned FileResult is always filled in, also on error.
func (s *Service) IngestFile(ctx context.Context, userID uuid.UUID, f UploadFile) (dto.FileResult, error) {
	start := s.now()
	log := s.log.With(zap.Stringer("user_id", userID), zap.String("file", f.Filename))
	result := dto.FileResult{Filename: f.Filename}

	fail := func(err error) (dto.FileResult, error) {
		fe := &FileError{Filename: f.Filename, Reason: failureReason(err), Err: err}
		log.Error("file ingestion failed", zap.Error(err))
		result.Error = fe.Reason
		filesTotal.WithLabelValues("failed").Inc()
		s.recordUpload(ctx, userID, f.Filename, model.UploadFailed, nil, fe.Reason, log)
		return result, fe
	}

	if s.policy.MaxFileBytes > 0 && int64(len(f.Data)) > s.policy.MaxFileBytes {
		return fail(fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, len(f.Data), s.policy.MaxFileBytes))
	}

	parsed, err := s.parser.Parse(f.Filename, f.Data)
	if err != nil {
		return fail(err)
	}
	for _, w := range parsed.Warnings {
		log.Warn("layout mismatch", zap.String("detail", w))
	}
	for _, is := range parsed.Extraction.Issues {
		log.Warn("row skipped", zap.Int("row", is.Row), zap.String("reason", is.Reason))
		result.Issues = append(result.Issues, dto.RowIssue{Row: is.Row, Reason: is.Reason})
	}
	result.Warnings = parsed.Warnings

	policy := s.retry
	policy.OnRetry = func(err error, wait time.Duration) {
		retriesTotal.Inc()
		log.Warn("transient database error, retrying", zap.Error(err), zap.Duration("wait", wait))
	}

	metrics, attempts, err := Retry(ctx, policy, func(ctx context.Context) (dto.IngestMetrics, error) {
		m := dto.IngestMetrics{RejectedRows: parsed.Extraction.RejectedRows}
		err := s.store.WithinTx(ctx, func(tx Store) error {
			resolved, err := s.reconciler.Reconcile(ctx, tx, userID, parsed.Extraction.Students, parsed.Extraction.Attendance)
			if err != nil {
				return err
			}
			m.NewCourses, m.ExistingCourses = resolved.NewCourses, resolved.ExistingCourses
			m.NewStudents, m.ExistingStudents = resolved.NewStudents, resolved.ExistingStudents
			return s.committer.Commit(ctx, tx, userID, resolved, parsed.Extraction.Attendance, &m)
		})
		return m, err
	})
	if err != nil {
		log.Warn("giving up", zap.Int("attempt", attempts))
		return fail(err)
	}

	elapsed := s.now().Sub(start)
	metrics.Attempts = attempts
	metrics.ElapsedMs = elapsed.Milliseconds()

	if metrics.Changed() {
		s.cache.Invalidate(userID)
	}

	filesTotal.WithLabelValues("succeeded").Inc()
	recordsTotal.WithLabelValues("inserted").Add(float64(metrics.Inserted))
	recordsTotal.WithLabelValues("duplicate").Add(float64(metrics.SkippedDuplicate))
	recordsTotal.WithLabelValues("low_periods").Add(float64(metrics.SkippedLowPeriods))
	recordsTotal.WithLabelValues("mapping_gap").Add(float64(metrics.MappingGaps))
	fileDuration.Observe(elapsed.Seconds())

	log.Info("file ingested",
		zap.Int("total_in_file", metrics.TotalInFile),
		zap.Int("inserted", metrics.Inserted),
		zap.Int("skipped_duplicate", metrics.SkippedDuplicate),
		zap.Int("skipped_low_periods", metrics.SkippedLowPeriods),
		zap.Int("new_students", metrics.NewStudents),
		zap.Int("new_courses", metrics.NewCourses),
		zap.Int("attempt", attempts),
		zap.Duration("elapsed", elapsed))

	result.Success = true
	result.Metrics = &metrics
	s.recordUpload(ctx, userID, f.Filename, model.UploadSucceeded, &metrics, "", log)
	return result, nil
}

// recordUpload writes the history row. Failures are logged only.
func (s *Service) recordUpload(ctx context.Context, userID uuid.UUID, filename string, status model.UploadStatus, m *dto.IngestMetrics, reason string, log *zap.Logger) {
	row := &model.UploadLogModel{
		UploadLogID:       uuid.New(),
		UploadLogUserID:   userID,
		UploadLogFilename: filename,
		UploadLogStatus:   status,
		UploadLogMetrics:  datatypes.JSON("{}"),
	}
	if m != nil {
		if raw, err := sonic.Marshal(m); err == nil {
			row.UploadLogMetrics = datatypes.JSON(raw)
		}
	}
	if reason != "" {
		row.UploadLogError = &reason
	}
	if err := s.store.InsertUploadLog(context.WithoutCancel(ctx), row); err != nil {
		log.Warn("upload log not written", zap.Error(err))
	}
}

// PruneUploadLogs is run by the retention job.
func (s *Service) PruneUploadLogs(ctx context.Context, before time.Time) (int64, error) {
	return s.store.PruneUploadLogs(ctx, before)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return "file is too large"
	case errors.Is(err, sheets.ErrUnsupportedFile):
		return "unsupported file type, upload .xlsx, .xls or .csv"
	case errors.Is(err, sheets.ErrEmptyFile):
		return "file is empty"
	case errors.Is(err, sheets.ErrNoSheet):
		return "could not read the first sheet of the workbook"
	case errors.Is(err, sheets.ErrNoCourses):
		return `no course headers like "21CS501 - Course Name" were found`
	case errors.Is(err, sheets.ErrNoRegistrationColumn):
		return "registration number column not found"
	case errors.Is(err, context.Canceled):
		return "upload cancelled"
	case IsTransient(err):
		return "database temporarily unavailable, please retry"
	default:
		return "could not save attendance data"
	}
}
