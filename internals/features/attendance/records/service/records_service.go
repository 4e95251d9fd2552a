// file: internals/features/attendance/records/service/records_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendance_backend/internals/configs"
	"attendance_backend/internals/features/attendance/records/dto"
	"attendance_backend/internals/helpers/cache"
)

const (
	opDashboard = "dashboard_stats"
	opFiltered  = "filtered_stats"
	opCourses   = "courses"

	uploadHistoryLimit = 50
)

type Service struct {
	store     Store
	cache     cache.Cache
	statsTTL  time.Duration
	courseTTL time.Duration
	opTimeout time.Duration
	log       *zap.Logger
}

func NewService(store Store, c cache.Cache, cfg configs.CacheConfig, opTimeout time.Duration, log *zap.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		store:     store,
		cache:     c,
		statsTTL:  cfg.StatsTTL,
		courseTTL: cfg.CoursesTTL,
		opTimeout: opTimeout,
		log:       log.Named("records"),
	}
}

// bounded caps a read so a saturated pool fails the request instead of
// queueing forever.
func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

/* =========================================================
   Stats
   ========================================================= */

func (s *Service) DashboardStats(ctx context.Context, userID uuid.UUID) (dto.DashboardStats, error) {
	key := cache.Key{Op: opDashboard, UserID: userID}
	return cache.Fetch(ctx, s.cache, key, s.statsTTL, func(ctx context.Context) (dto.DashboardStats, error) {
		ctx, cancel := s.bounded(ctx)
		defer cancel()
		c, err := s.store.DashboardCounts(ctx, userID)
		if err != nil {
			return dto.DashboardStats{}, fmt.Errorf("dashboard counts: %w", err)
		}
		return dto.DashboardStats{
			TotalStudents:           c.Students,
			TotalCourses:            c.Courses,
			TotalRecords:            c.Records,
			LowAttendanceCount:      c.Low,
			CriticalAttendanceCount: c.Critical,
		}, nil
	})
}

// FilteredStats aggregates the filtered record set. When the filter narrows
// to exactly one student the response also carries that student's courses.
func (s *Service) FilteredStats(ctx context.Context, userID uuid.UUID, f dto.Filter) (dto.FilteredStats, error) {
	f = f.Normalize()
	key := cache.Key{Op: opFiltered, UserID: userID, Params: f.CacheKey()}
	return cache.Fetch(ctx, s.cache, key, s.statsTTL, func(ctx context.Context) (dto.FilteredStats, error) {
		ctx, cancel := s.bounded(ctx)
		defer cancel()

		c, err := s.store.FilteredCounts(ctx, userID, f)
		if err != nil {
			return dto.FilteredStats{}, fmt.Errorf("filtered counts: %w", err)
		}
		inSystem, err := s.store.CountCourses(ctx, userID)
		if err != nil {
			return dto.FilteredStats{}, fmt.Errorf("count courses: %w", err)
		}
		out := dto.FilteredStats{
			TotalStudents:           c.Students,
			TotalCourses:            c.Courses,
			LowAttendanceCount:      c.Low,
			CriticalAttendanceCount: c.Critical,
			TotalCoursesInSystem:    inSystem,
		}
		if c.Students != 1 {
			return out, nil
		}

		st, err := s.store.FirstFilteredStudent(ctx, userID, f)
		if err != nil {
			return dto.FilteredStats{}, fmt.Errorf("single student: %w", err)
		}
		if st == nil {
			return out, nil
		}
		courses, err := s.store.StudentCourses(ctx, userID, st.StudentID, f)
		if err != nil {
			return dto.FilteredStats{}, fmt.Errorf("student courses: %w", err)
		}
		out.IsSingleStudent = true
		out.StudentDetails = &dto.StudentDetails{
			RegistrationNo: st.StudentRegistrationNo,
			Name:           st.StudentName,
			AdmissionNo:    st.StudentAdmissionNo,
		}
		out.CourseDetails = courses
		out.StudentCourseInfo = CourseCountSummary(len(courses), inSystem)
		return out, nil
	})
}

func CourseCountSummary(enrolled int, inSystem int64) string {
	noun := "courses"
	if inSystem == 1 {
		noun = "course"
	}
	return fmt.Sprintf("Attendance recorded in %d of %d %s", enrolled, inSystem, noun)
}

func (s *Service) ListCourses(ctx context.Context, userID uuid.UUID) ([]dto.CourseResponse, error) {
	key := cache.Key{Op: opCourses, UserID: userID}
	return cache.Fetch(ctx, s.cache, key, s.courseTTL, func(ctx context.Context) ([]dto.CourseResponse, error) {
		ctx, cancel := s.bounded(ctx)
		defer cancel()
		out, err := s.store.ListCourses(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list courses: %w", err)
		}
		if out == nil {
			out = []dto.CourseResponse{}
		}
		return out, nil
	})
}

/* =========================================================
   Records
   ========================================================= */

// ListRecords is never cached; pages are sliced by the database.
func (s *Service) ListRecords(ctx context.Context, userID uuid.UUID, q dto.ListQuery) (dto.ListResponse, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	f := q.Filter.Normalize()
	page, perPage := min(max(q.Page, 1), dto.MaxListPage), min(max(q.PerPage, 1), dto.MaxListPerPage)
	rows, total, err := s.store.ListRecords(ctx, userID, f, perPage, (page-1)*perPage)
	if err != nil {
		return dto.ListResponse{}, fmt.Errorf("list records: %w", err)
	}
	if rows == nil {
		rows = []dto.RecordResponse{}
	}
	return dto.ListResponse{
		Records:    rows,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages(total, perPage),
	}, nil
}

func totalPages(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

func (s *Service) DeleteRecord(ctx context.Context, userID, recordID uuid.UUID) (bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	ok, err := s.store.DeleteRecord(ctx, userID, recordID)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	if ok {
		s.cache.Invalidate(userID)
		s.log.Info("attendance record deleted", zap.Stringer("user_id", userID), zap.Stringer("record_id", recordID))
	}
	return ok, nil
}

// ClearAllData removes every record, student and course of the user.
func (s *Service) ClearAllData(ctx context.Context, userID uuid.UUID) (bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	if err := s.store.ClearAll(ctx, userID); err != nil {
		return false, fmt.Errorf("clear data: %w", err)
	}
	s.cache.Invalidate(userID)
	s.log.Info("all attendance data cleared", zap.Stringer("user_id", userID))
	return true, nil
}

func (s *Service) ListUploads(ctx context.Context, userID uuid.UUID) ([]dto.UploadLogResponse, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()
	rows, err := s.store.ListUploads(ctx, userID, uploadHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	out := make([]dto.UploadLogResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.FromUploadLog(r))
	}
	return out, nil
}
