// file: internals/features/attendance/records/dto/records_dto.go
package dto

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"attendance_backend/internals/features/attendance/records/model"
	"attendance_backend/internals/helpers/cache"
)

/* =========================================================
   1) FILTER (query string)
   ========================================================= */

// Filter narrows listing, filtered stats and export. Threshold keeps records
// strictly below the given percentage.
type Filter struct {
	Course         string   `json:"course,omitempty"          validate:"omitempty,max=32"`
	Threshold      *float64 `json:"threshold,omitempty"       validate:"omitempty,gte=0,lte=100"`
	Search         string   `json:"search,omitempty"          validate:"omitempty,max=100"`
	ExcludeCourses []string `json:"exclude_courses,omitempty" validate:"omitempty,max=200,dive,max=32"`
}

// Normalize trims inputs, upper-cases course codes and sorts exclusions.
func (f Filter) Normalize() Filter {
	out := Filter{
		Course:    strings.ToUpper(strings.TrimSpace(f.Course)),
		Threshold: f.Threshold,
		Search:    strings.TrimSpace(f.Search),
	}
	seen := map[string]struct{}{}
	for _, c := range f.ExcludeCourses {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out.ExcludeCourses = append(out.ExcludeCourses, c)
	}
	sort.Strings(out.ExcludeCourses)
	return out
}

// CacheKey is stable for equal normalized filters.
func (f Filter) CacheKey() string {
	th := ""
	if f.Threshold != nil {
		th = strconv.FormatFloat(*f.Threshold, 'f', -1, 64)
	}
	return cache.ParamsKey("c="+f.Course, "t="+th, "s="+strings.ToLower(f.Search), "x="+strings.Join(f.ExcludeCourses, ","))
}

// Listing bounds keep (page-1)*per_page far from int overflow.
const (
	MaxListPage    = 100_000
	MaxListPerPage = 10_000
)

type ListQuery struct {
	Filter
	Page    int `json:"page"     validate:"min=1,max=100000"`
	PerPage int `json:"per_page" validate:"min=1,max=10000"`
}

/* =========================================================
   2) RESPONSES
   ========================================================= */

type RecordResponse struct {
	ID                   uuid.UUID `json:"id"`
	RegistrationNo       string    `json:"registration_no"`
	StudentName          string    `json:"student_name"`
	CourseCode           string    `json:"course_code"`
	CourseName           string    `json:"course_name"`
	AttendedPeriods      int       `json:"attended_periods"`
	ConductedPeriods     int       `json:"conducted_periods"`
	AttendancePercentage float64   `json:"attendance_percentage"`
}

type ListResponse struct {
	Records    []RecordResponse `json:"records"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	TotalPages int              `json:"total_pages"`
}

type DashboardStats struct {
	TotalStudents           int64 `json:"total_students"`
	TotalCourses            int64 `json:"total_courses"`
	TotalRecords            int64 `json:"total_records"`
	LowAttendanceCount      int64 `json:"low_attendance_count"`
	CriticalAttendanceCount int64 `json:"critical_attendance_count"`
}

type StudentDetails struct {
	RegistrationNo string  `json:"registration_no"`
	Name           string  `json:"name"`
	AdmissionNo    *string `json:"admission_no,omitempty"`
}

type CourseDetail struct {
	CourseCode           string  `json:"course_code"`
	CourseName           string  `json:"course_name"`
	AttendedPeriods      int     `json:"attended_periods"`
	ConductedPeriods     int     `json:"conducted_periods"`
	AttendancePercentage float64 `json:"attendance_percentage"`
}

type FilteredStats struct {
	TotalStudents           int64           `json:"total_students"`
	TotalCourses            int64           `json:"total_courses"`
	LowAttendanceCount      int64           `json:"low_attendance_count"`
	CriticalAttendanceCount int64           `json:"critical_attendance_count"`
	IsSingleStudent         bool            `json:"is_single_student"`
	StudentDetails          *StudentDetails `json:"student_details,omitempty"`
	TotalCoursesInSystem    int64           `json:"total_courses_in_system"`
	CourseDetails           []CourseDetail  `json:"course_details,omitempty"`
	StudentCourseInfo       string          `json:"student_course_info,omitempty"`
}

type CourseResponse struct {
	CourseCode  string `json:"course_code"`
	CourseName  string `json:"course_name"`
	RecordCount int64  `json:"record_count"`
}

type UploadLogResponse struct {
	ID        uuid.UUID          `json:"id"`
	Filename  string             `json:"filename"`
	Status    model.UploadStatus `json:"status"`
	Metrics   any                `json:"metrics,omitempty"`
	Error     *string            `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

func FromUploadLog(m model.UploadLogModel) UploadLogResponse {
	out := UploadLogResponse{
		ID:        m.UploadLogID,
		Filename:  m.UploadLogFilename,
		Status:    m.UploadLogStatus,
		Error:     m.UploadLogError,
		CreatedAt: m.UploadLogCreatedAt,
	}
	if len(m.UploadLogMetrics) > 0 && string(m.UploadLogMetrics) != "{}" {
		out.Metrics = m.UploadLogMetrics
	}
	return out
}
