// file: internals/features/attendance/ingest/service/gorm_store.go
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"attendance_backend/internals/features/attendance/records/model"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

/* ==== courses ==== */

func (s *GormStore) FindCoursesByCodes(ctx context.Context, userID uuid.UUID, codes []string) ([]model.CourseModel, error) {
	var out []model.CourseModel
	if len(codes) == 0 {
		return out, nil
	}
	err := s.db.WithContext(ctx).
		Where("course_user_id = ? AND course_code = ANY(?)", userID, pq.Array(codes)).
		Find(&out).Error
	return out, err
}

func (s *GormStore) InsertCourses(ctx context.Context, rows []model.CourseModel) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_user_id"}, {Name: "course_code"}},
			DoNothing: true,
		}).
		CreateInBatches(&rows, 1000)
	return res.RowsAffected, res.Error
}

/* ==== students ==== */

func (s *GormStore) FindStudentsByRegNos(ctx context.Context, userID uuid.UUID, regNos []string) ([]model.StudentModel, error) {
	var out []model.StudentModel
	if len(regNos) == 0 {
		return out, nil
	}
	err := s.db.WithContext(ctx).
		Where("student_user_id = ? AND student_registration_no = ANY(?)", userID, pq.Array(regNos)).
		Find(&out).Error
	return out, err
}

func (s *GormStore) InsertStudents(ctx context.Context, rows []model.StudentModel) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_user_id"}, {Name: "student_registration_no"}},
			DoNothing: true,
		}).
		CreateInBatches(&rows, 1000)
	return res.RowsAffected, res.Error
}

/* ==== attendance ==== */

func (s *GormStore) FindExistingPairs(ctx context.Context, userID uuid.UUID, pairs []Pair) ([]Pair, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	tuples := make([][]interface{}, 0, len(pairs))
	for _, p := range pairs {
		tuples = append(tuples, []interface{}{p.StudentID, p.CourseID})
	}

	var rows []struct {
		StudentID uuid.UUID `gorm:"column:attendance_record_student_id"`
		CourseID  uuid.UUID `gorm:"column:attendance_record_course_id"`
	}
	err := s.db.WithContext(ctx).
		Model(&model.AttendanceRecordModel{}).
		Select("attendance_record_student_id, attendance_record_course_id").
		Where("attendance_record_user_id = ?", userID).
		Where("(attendance_record_student_id, attendance_record_course_id) IN ?", tuples).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]Pair, 0, len(rows))
	for _, r := range rows {
		out = append(out, Pair{StudentID: r.StudentID, CourseID: r.CourseID})
	}
	return out, nil
}

func (s *GormStore) InsertAttendance(ctx context.Context, rows []model.AttendanceRecordModel, batchSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		batchSize = len(rows)
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "attendance_record_user_id"},
				{Name: "attendance_record_student_id"},
				{Name: "attendance_record_course_id"},
			},
			DoNothing: true,
		}).
		CreateInBatches(&rows, batchSize)
	return res.RowsAffected, res.Error
}

/* ==== upload history ==== */

func (s *GormStore) InsertUploadLog(ctx context.Context, row *model.UploadLogModel) error {
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *GormStore) PruneUploadLogs(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("upload_log_created_at < ?", before).
		Delete(&model.UploadLogModel{})
	return res.RowsAffected, res.Error
}
