// file: internals/features/attendance/records/service/stats_store.go
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"attendance_backend/internals/constants"
	"attendance_backend/internals/features/attendance/records/dto"
	"attendance_backend/internals/features/attendance/records/model"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

/* ==== shared query builders ==== */

func (s *GormStore) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("attendance_records AS ar").
		Joins("JOIN students s ON s.student_id = ar.attendance_record_student_id").
		Joins("JOIN courses c ON c.course_id = ar.attendance_record_course_id")
}

func applyFilter(q *gorm.DB, userID uuid.UUID, f dto.Filter) *gorm.DB {
	q = q.Where("ar.attendance_record_user_id = ?", userID)
	if f.Course != "" {
		q = q.Where("c.course_code = ?", f.Course)
	}
	if len(f.ExcludeCourses) > 0 {
		q = q.Where("c.course_code <> ALL(?)", pq.Array(f.ExcludeCourses))
	}
	if f.Search != "" {
		like := "%" + escapeLike(f.Search) + "%"
		q = q.Where("(s.student_name ILIKE ? OR s.student_registration_no ILIKE ?)", like, like)
	}
	if f.Threshold != nil {
		q = q.Where("ar.attendance_record_percentage < ?", *f.Threshold)
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

/* ==== aggregates ==== */

func (s *GormStore) DashboardCounts(ctx context.Context, userID uuid.UUID) (Counts, error) {
	var out Counts
	err := s.db.WithContext(ctx).Raw(`
SELECT
  (SELECT COUNT(*) FROM students WHERE student_user_id = @u) AS students,
  (SELECT COUNT(*) FROM courses  WHERE course_user_id  = @u) AS courses,
  COUNT(*)                                                       AS records,
  COUNT(*) FILTER (WHERE attendance_record_percentage < @low)    AS low,
  COUNT(*) FILTER (WHERE attendance_record_percentage < @crit)   AS critical
FROM attendance_records
WHERE attendance_record_user_id = @u`,
		map[string]interface{}{"u": userID, "low": constants.LowAttendanceBelow, "crit": constants.CriticalAttendanceBelow},
	).Scan(&out).Error
	return out, err
}

func (s *GormStore) FilteredCounts(ctx context.Context, userID uuid.UUID, f dto.Filter) (Counts, error) {
	var out Counts
	err := applyFilter(s.joined(ctx), userID, f).
		Select(`COUNT(DISTINCT ar.attendance_record_student_id) AS students,
  COUNT(DISTINCT ar.attendance_record_course_id) AS courses,
  COUNT(*) AS records,
  COUNT(*) FILTER (WHERE ar.attendance_record_percentage < ?) AS low,
  COUNT(*) FILTER (WHERE ar.attendance_record_percentage < ?) AS critical`,
			constants.LowAttendanceBelow, constants.CriticalAttendanceBelow).
		Scan(&out).Error
	return out, err
}

func (s *GormStore) CountCourses(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.CourseModel{}).
		Where("course_user_id = ?", userID).
		Count(&n).Error
	return n, err
}

func (s *GormStore) FirstFilteredStudent(ctx context.Context, userID uuid.UUID, f dto.Filter) (*model.StudentModel, error) {
	var st model.StudentModel
	err := applyFilter(s.joined(ctx), userID, f).
		Select("s.*").
		Order("s.student_registration_no ASC").
		Limit(1).
		Take(&st).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *GormStore) StudentCourses(ctx context.Context, userID, studentID uuid.UUID, f dto.Filter) ([]dto.CourseDetail, error) {
	var out []dto.CourseDetail
	err := applyFilter(s.joined(ctx), userID, f).
		Where("ar.attendance_record_student_id = ?", studentID).
		Select(`c.course_code AS course_code, c.course_name AS course_name,
  ar.attendance_record_attended_periods AS attended_periods,
  ar.attendance_record_conducted_periods AS conducted_periods,
  ar.attendance_record_percentage AS attendance_percentage`).
		Order("c.course_code ASC").
		Scan(&out).Error
	return out, err
}

/* ==== listings ==== */

func (s *GormStore) ListCourses(ctx context.Context, userID uuid.UUID) ([]dto.CourseResponse, error) {
	var out []dto.CourseResponse
	err := s.db.WithContext(ctx).
		Table("courses AS c").
		Joins("LEFT JOIN attendance_records ar ON ar.attendance_record_course_id = c.course_id").
		Where("c.course_user_id = ?", userID).
		Select("c.course_code AS course_code, c.course_name AS course_name, COUNT(ar.attendance_record_id) AS record_count").
		Group("c.course_id, c.course_code, c.course_name").
		Order("c.course_code ASC").
		Scan(&out).Error
	return out, err
}

// ListRecords pages at the database: at-risk students first within a course.
func (s *GormStore) ListRecords(ctx context.Context, userID uuid.UUID, f dto.Filter, limit, offset int) ([]dto.RecordResponse, int64, error) {
	var total int64
	if err := applyFilter(s.joined(ctx), userID, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := make([]dto.RecordResponse, 0)
	if total == 0 {
		return out, 0, nil
	}
	err := applyFilter(s.joined(ctx), userID, f).
		Select(`ar.attendance_record_id AS id,
  s.student_registration_no AS registration_no,
  s.student_name AS student_name,
  c.course_code AS course_code,
  c.course_name AS course_name,
  ar.attendance_record_attended_periods AS attended_periods,
  ar.attendance_record_conducted_periods AS conducted_periods,
  ar.attendance_record_percentage AS attendance_percentage`).
		Order("c.course_code ASC, ar.attendance_record_percentage ASC, s.student_registration_no ASC").
		Limit(limit).
		Offset(offset).
		Scan(&out).Error
	return out, total, err
}

func (s *GormStore) ListUploads(ctx context.Context, userID uuid.UUID, limit int) ([]model.UploadLogModel, error) {
	var out []model.UploadLogModel
	err := s.db.WithContext(ctx).
		Where("upload_log_user_id = ?", userID).
		Order("upload_log_created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

/* ==== deletes ==== */

func (s *GormStore) DeleteRecord(ctx context.Context, userID, recordID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("attendance_record_id = ? AND attendance_record_user_id = ?", recordID, userID).
		Delete(&model.AttendanceRecordModel{})
	return res.RowsAffected > 0, res.Error
}

// ClearAll removes attendance first since it references students and courses.
func (s *GormStore) ClearAll(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("attendance_record_user_id = ?", userID).Delete(&model.AttendanceRecordModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_user_id = ?", userID).Delete(&model.StudentModel{}).Error; err != nil {
			return err
		}
		return tx.Where("course_user_id = ?", userID).Delete(&model.CourseModel{}).Error
	})
}
