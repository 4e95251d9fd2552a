// file: internals/features/attendance/ingest/dto/ingest_dto.go
package dto

/* =========================================================
   Ingestion metrics (per file)
   ========================================================= */

type IngestMetrics struct {
	NewCourses        int `json:"new_courses"`
	ExistingCourses   int `json:"existing_courses"`
	NewStudents       int `json:"new_students"`
	ExistingStudents  int `json:"existing_students"`
	TotalInFile       int `json:"total_in_file"`
	Inserted          int `json:"inserted"`
	SkippedLowPeriods int `json:"skipped_low_periods"`
	SkippedDuplicate  int `json:"skipped_duplicate"`

	// not part of inserted/duplicate/low-period
	MappingGaps  int `json:"mapping_gaps"`
	RejectedRows int `json:"rejected_rows"`

	Attempts  int   `json:"attempts"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

// Changed reports whether the commit wrote anything visible to read paths.
func (m IngestMetrics) Changed() bool {
	return m.Inserted > 0 || m.NewStudents > 0 || m.NewCourses > 0
}

/* =========================================================
   Upload responses
   ========================================================= */

type RowIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type FileResult struct {
	Filename string         `json:"filename"`
	Success  bool           `json:"success"`
	Metrics  *IngestMetrics `json:"metrics,omitempty"`
	Error    string         `json:"error,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Issues   []RowIssue     `json:"row_issues,omitempty"`
}

type BatchResult struct {
	Files     []FileResult `json:"files"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}
