// file: internals/features/attendance/records/model/course_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// CourseModel is unique per (owner, course code).
type CourseModel struct {
	CourseID        uuid.UUID `gorm:"column:course_id;type:uuid;default:gen_random_uuid();primaryKey" json:"course_id"`
	CourseUserID    uuid.UUID `gorm:"column:course_user_id;type:uuid;not null;index" json:"course_user_id"`
	CourseCode      string    `gorm:"column:course_code;type:varchar(32);not null" json:"course_code"`
	CourseName      string    `gorm:"column:course_name;type:varchar(255);not null" json:"course_name"`
	CourseCreatedAt time.Time `gorm:"column:course_created_at;type:timestamptz;not null;default:now();autoCreateTime" json:"course_created_at"`
}

func (CourseModel) TableName() string { return "courses" }
