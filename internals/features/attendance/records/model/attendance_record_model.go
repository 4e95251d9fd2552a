// file: internals/features/attendance/records/model/attendance_record_model.go
package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// AttendanceRecordModel: at most one row per (owner, student, course). The
// percentage is fixed at insert time and never recomputed.
type AttendanceRecordModel struct {
	AttendanceRecordID               uuid.UUID `gorm:"column:attendance_record_id;type:uuid;default:gen_random_uuid();primaryKey" json:"attendance_record_id"`
	AttendanceRecordUserID           uuid.UUID `gorm:"column:attendance_record_user_id;type:uuid;not null" json:"attendance_record_user_id"`
	AttendanceRecordStudentID        uuid.UUID `gorm:"column:attendance_record_student_id;type:uuid;not null" json:"attendance_record_student_id"`
	AttendanceRecordCourseID         uuid.UUID `gorm:"column:attendance_record_course_id;type:uuid;not null" json:"attendance_record_course_id"`
	AttendanceRecordAttendedPeriods  int       `gorm:"column:attendance_record_attended_periods;not null" json:"attendance_record_attended_periods"`
	AttendanceRecordConductedPeriods int       `gorm:"column:attendance_record_conducted_periods;not null" json:"attendance_record_conducted_periods"`
	AttendanceRecordPercentage       float64   `gorm:"column:attendance_record_percentage;type:numeric(4,1);not null" json:"attendance_record_percentage"`
	AttendanceRecordUploadedAt       time.Time `gorm:"column:attendance_record_uploaded_at;type:timestamptz;not null;default:now();autoCreateTime" json:"attendance_record_uploaded_at"`
}

func (AttendanceRecordModel) TableName() string { return "attendance_records" }

// NormalizePercentage clamps to [0,100] and keeps one decimal.
func NormalizePercentage(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 100 {
		p = 100
	}
	return math.Round(p*10) / 10
}
