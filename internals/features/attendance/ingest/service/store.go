// file: internals/features/attendance/ingest/service/store.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"attendance_backend/internals/features/attendance/records/model"
)

// Pair is one (student, course) attendance key inside a user scope.
type Pair struct {
	StudentID uuid.UUID
	CourseID  uuid.UUID
}

// Store is the persistence the ingest pipeline needs. Insert methods are
// conflict-tolerant and return the number of rows actually written.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	FindCoursesByCodes(ctx context.Context, userID uuid.UUID, codes []string) ([]model.CourseModel, error)
	InsertCourses(ctx context.Context, rows []model.CourseModel) (int64, error)

	FindStudentsByRegNos(ctx context.Context, userID uuid.UUID, regNos []string) ([]model.StudentModel, error)
	InsertStudents(ctx context.Context, rows []model.StudentModel) (int64, error)

	FindExistingPairs(ctx context.Context, userID uuid.UUID, pairs []Pair) ([]Pair, error)
	InsertAttendance(ctx context.Context, rows []model.AttendanceRecordModel, batchSize int) (int64, error)

	InsertUploadLog(ctx context.Context, row *model.UploadLogModel) error
	PruneUploadLogs(ctx context.Context, before time.Time) (int64, error)
}
