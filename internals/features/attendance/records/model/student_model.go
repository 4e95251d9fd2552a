// file: internals/features/attendance/records/model/student_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// StudentModel is unique per (owner, registration number).
type StudentModel struct {
	StudentID             uuid.UUID `gorm:"column:student_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_id"`
	StudentUserID         uuid.UUID `gorm:"column:student_user_id;type:uuid;not null;index" json:"student_user_id"`
	StudentAdmissionNo    *string   `gorm:"column:student_admission_no;type:varchar(64)" json:"student_admission_no,omitempty"`
	StudentRegistrationNo string    `gorm:"column:student_registration_no;type:varchar(64);not null" json:"student_registration_no"`
	StudentName           string    `gorm:"column:student_name;type:varchar(255);not null" json:"student_name"`
	StudentCreatedAt      time.Time `gorm:"column:student_created_at;type:timestamptz;not null;default:now();autoCreateTime" json:"student_created_at"`
}

func (StudentModel) TableName() string { return "students" }
