package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Fixed schema, applied idempotently on every start. There is no migration
// history: statements must stay safe to re-run.
var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

	`CREATE TABLE IF NOT EXISTS students (
		student_id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		student_user_id         UUID NOT NULL,
		student_admission_no    VARCHAR(64),
		student_registration_no VARCHAR(64) NOT NULL,
		student_name            VARCHAR(255) NOT NULL DEFAULT '',
		student_created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uq_students_user_registration UNIQUE (student_user_id, student_registration_no)
	)`,

	`CREATE TABLE IF NOT EXISTS courses (
		course_id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		course_user_id    UUID NOT NULL,
		course_code       VARCHAR(32) NOT NULL,
		course_name       VARCHAR(255) NOT NULL DEFAULT '',
		course_created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uq_courses_user_code UNIQUE (course_user_id, course_code)
	)`,

	`CREATE TABLE IF NOT EXISTS attendance_records (
		attendance_record_id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		attendance_record_user_id           UUID NOT NULL,
		attendance_record_student_id        UUID NOT NULL REFERENCES students(student_id),
		attendance_record_course_id         UUID NOT NULL REFERENCES courses(course_id),
		attendance_record_attended_periods  INTEGER NOT NULL CHECK (attendance_record_attended_periods >= 0),
		attendance_record_conducted_periods INTEGER NOT NULL CHECK (attendance_record_conducted_periods >= 0),
		attendance_record_percentage        NUMERIC(4,1) NOT NULL CHECK (attendance_record_percentage BETWEEN 0 AND 100),
		attendance_record_uploaded_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT uq_attendance_user_student_course UNIQUE (attendance_record_user_id, attendance_record_student_id, attendance_record_course_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_user_course ON attendance_records (attendance_record_user_id, attendance_record_course_id)`,
	`CREATE INDEX IF NOT EXISTS idx_attendance_user_percentage ON attendance_records (attendance_record_user_id, attendance_record_percentage)`,

	`CREATE TABLE IF NOT EXISTS upload_logs (
		upload_log_id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		upload_log_user_id    UUID NOT NULL,
		upload_log_filename   VARCHAR(255) NOT NULL,
		upload_log_status     VARCHAR(16) NOT NULL,
		upload_log_metrics    JSONB NOT NULL DEFAULT '{}'::jsonb,
		upload_log_error      TEXT,
		upload_log_created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_upload_logs_user_created ON upload_logs (upload_log_user_id, upload_log_created_at DESC)`,
}

func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	for i, stmt := range schemaStatements {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
