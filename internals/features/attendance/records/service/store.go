// file: internals/features/attendance/records/service/store.go
package service

import (
	"context"

	"github.com/google/uuid"

	"attendance_backend/internals/features/attendance/records/dto"
	"attendance_backend/internals/features/attendance/records/model"
)

// Counts is one set-based aggregate over attendance records.
type Counts struct {
	Students int64 `gorm:"column:students"`
	Courses  int64 `gorm:"column:courses"`
	Records  int64 `gorm:"column:records"`
	Low      int64 `gorm:"column:low"`
	Critical int64 `gorm:"column:critical"`
}

// Store is the read/delete side. Every method is scoped to userID.
type Store interface {
	DashboardCounts(ctx context.Context, userID uuid.UUID) (Counts, error)
	FilteredCounts(ctx context.Context, userID uuid.UUID, f dto.Filter) (Counts, error)
	CountCourses(ctx context.Context, userID uuid.UUID) (int64, error)
	FirstFilteredStudent(ctx context.Context, userID uuid.UUID, f dto.Filter) (*model.StudentModel, error)
	StudentCourses(ctx context.Context, userID, studentID uuid.UUID, f dto.Filter) ([]dto.CourseDetail, error)

	ListCourses(ctx context.Context, userID uuid.UUID) ([]dto.CourseResponse, error)
	ListRecords(ctx context.Context, userID uuid.UUID, f dto.Filter, limit, offset int) ([]dto.RecordResponse, int64, error)
	ListUploads(ctx context.Context, userID uuid.UUID, limit int) ([]model.UploadLogModel, error)

	DeleteRecord(ctx context.Context, userID, recordID uuid.UUID) (bool, error)
	ClearAll(ctx context.Context, userID uuid.UUID) error
}
