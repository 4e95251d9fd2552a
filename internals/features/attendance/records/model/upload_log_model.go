// file: internals/features/attendance/records/model/upload_log_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UploadStatus string

const (
	UploadSucceeded UploadStatus = "succeeded"
	UploadFailed    UploadStatus = "failed"
)

// UploadLogModel keeps one row per processed file; metrics are the ingestion
// counters serialized as JSONB.
type UploadLogModel struct {
	UploadLogID        uuid.UUID      `gorm:"column:upload_log_id;type:uuid;default:gen_random_uuid();primaryKey" json:"upload_log_id"`
	UploadLogUserID    uuid.UUID      `gorm:"column:upload_log_user_id;type:uuid;not null;index" json:"upload_log_user_id"`
	UploadLogFilename  string         `gorm:"column:upload_log_filename;type:varchar(255);not null" json:"upload_log_filename"`
	UploadLogStatus    UploadStatus   `gorm:"column:upload_log_status;type:varchar(16);not null" json:"upload_log_status"`
	UploadLogMetrics   datatypes.JSON `gorm:"column:upload_log_metrics;type:jsonb;not null;default:'{}'" json:"upload_log_metrics"`
	UploadLogError     *string        `gorm:"column:upload_log_error;type:text" json:"upload_log_error,omitempty"`
	UploadLogCreatedAt time.Time      `gorm:"column:upload_log_created_at;type:timestamptz;not null;default:now();autoCreateTime" json:"upload_log_created_at"`
}

func (UploadLogModel) TableName() string { return "upload_logs" }
