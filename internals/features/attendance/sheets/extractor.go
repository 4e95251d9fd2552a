// file: internals/features/attendance/sheets/extractor.go
package sheets

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Column widths of the students and courses tables; values past them would
// fail the whole file's insert.
const (
	MaxRegistrationLen = 64
	MaxAdmissionLen    = 64
	MaxNameLen         = 255
	MaxPeriods         = math.MaxInt32
)

var (
	invalidRegistrationValues = map[string]struct{}{"": {}, "undefined": {}, "nan": {}, "-": {}}
	invalidCellValues         = map[string]struct{}{"": {}, "-": {}, "nan": {}}
	aggregateRowMarkers       = []string{"cumulative", "total", "summary"}
)

type StudentTuple struct {
	Row            int // 1-based sheet row
	RegistrationNo string
	Name           string
	AdmissionNo    *string
}

type AttendanceTuple struct {
	Row            int
	RegistrationNo string
	CourseCode     string
	CourseName     string
	Attended       int
	Conducted      int
	Percentage     float64
}

type RowIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

func (i RowIssue) String() string { return fmt.Sprintf("row %d: %s", i.Row, i.Reason) }

type Extraction struct {
	Students     []StudentTuple
	Attendance   []AttendanceTuple
	Issues       []RowIssue
	BlankRows    int
	RejectedRows int
}

// Extractor walks the data rows. Conducted values above MaxConducted are
// treated as merged/cumulative artifacts and dropped.
type Extractor struct {
	MaxConducted float64
}

func (e Extractor) Extract(ws *Worksheet, dataStart int, cols ColumnMap, layout CourseLayout) Extraction {
	var out Extraction
	if dataStart < 0 {
		dataStart = 0
	}

	for r := dataStart; r < ws.NumRows(); r++ {
		row := ws.Row(r)
		sheetRow := r + 1
		if isBlankRow(row) {
			out.BlankRows++
			continue
		}

		reg := cellAt(row, cols.RegistrationCol)
		name := cellAt(row, cols.NameCol)
		if reason, bad := rejectRow(reg, name); bad {
			out.RejectedRows++
			out.Issues = append(out.Issues, RowIssue{Row: sheetRow, Reason: reason})
			continue
		}

		student := StudentTuple{Row: sheetRow, RegistrationNo: reg, Name: name}
		if adm := cellAt(row, cols.AdmissionCol); !isInvalidCell(adm) {
			if utf8.RuneCountInString(adm) > MaxAdmissionLen {
				out.Issues = append(out.Issues, RowIssue{Row: sheetRow, Reason: fmt.Sprintf("admission number longer than %d characters, dropped", MaxAdmissionLen)})
			} else {
				student.AdmissionNo = &adm
			}
		}
		out.Students = append(out.Students, student)

		for _, cc := range cols.Courses {
			tuple, issue, ok := e.extractCourse(row, cc, layout)
			if issue != "" {
				out.Issues = append(out.Issues, RowIssue{Row: sheetRow, Reason: issue})
			}
			if !ok {
				continue
			}
			tuple.Row = sheetRow
			tuple.RegistrationNo = reg
			out.Attendance = append(out.Attendance, tuple)
		}
	}
	return out
}

// extractCourse returns ok=false for silently absent data and a non-empty
// issue for values that were present but unusable.
func (e Extractor) extractCourse(row []string, cc CourseColumns, layout CourseLayout) (AttendanceTuple, string, bool) {
	code := cc.Course.Code
	attRaw := cellAt(row, cc.Attended)
	conRaw := cellAt(row, cc.Conducted)
	if isInvalidCell(attRaw) || isInvalidCell(conRaw) {
		return AttendanceTuple{}, "", false
	}

	attended, err1 := parseNumber(attRaw)
	conducted, err2 := parseNumber(conRaw)
	if err1 != nil || err2 != nil {
		return AttendanceTuple{}, fmt.Sprintf("%s: non-numeric periods %q/%q", code, attRaw, conRaw), false
	}
	if attended < 0 || conducted < 0 {
		return AttendanceTuple{}, fmt.Sprintf("%s: negative periods %q/%q", code, attRaw, conRaw), false
	}
	// Rounding would let 4.6 conducted periods pass a minimum of 5.
	if attended != math.Trunc(attended) || conducted != math.Trunc(conducted) {
		return AttendanceTuple{}, fmt.Sprintf("%s: fractional periods %q/%q", code, attRaw, conRaw), false
	}
	if e.MaxConducted > 0 && conducted > e.MaxConducted {
		return AttendanceTuple{}, fmt.Sprintf("%s: conducted %v exceeds %v, treated as cumulative", code, conducted, e.MaxConducted), false
	}
	if conducted > MaxPeriods {
		return AttendanceTuple{}, fmt.Sprintf("%s: conducted %q out of range", code, conRaw), false
	}
	if attended > conducted {
		return AttendanceTuple{}, fmt.Sprintf("%s: attended %q exceeds conducted %q", code, attRaw, conRaw), false
	}

	percentage, err := parseNumber(cellAt(row, cc.Percentage))
	if err != nil {
		percentage = DerivePercentage(attended, conducted)
	}

	return AttendanceTuple{
		CourseCode: code,
		CourseName: truncateRunes(layout.NameOf(code), MaxNameLen),
		Attended:   int(attended),
		Conducted:  int(conducted),
		Percentage: percentage,
	}, "", true
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func DerivePercentage(attended, conducted float64) float64 {
	if conducted == 0 {
		return 0
	}
	return attended / conducted * 100
}

func rejectRow(reg, name string) (string, bool) {
	if _, bad := invalidRegistrationValues[strings.ToLower(reg)]; bad {
		return fmt.Sprintf("invalid registration number %q", reg), true
	}
	if utf8.RuneCountInString(reg) > MaxRegistrationLen {
		return fmt.Sprintf("registration number longer than %d characters", MaxRegistrationLen), true
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return fmt.Sprintf("name longer than %d characters", MaxNameLen), true
	}
	lowReg, lowName := strings.ToLower(reg), strings.ToLower(name)
	for _, marker := range aggregateRowMarkers {
		if strings.Contains(lowReg, marker) || strings.Contains(lowName, marker) {
			return fmt.Sprintf("aggregate row (%s)", marker), true
		}
	}
	return "", false
}

func isInvalidCell(v string) bool {
	_, bad := invalidCellValues[strings.ToLower(strings.TrimSpace(v))]
	return bad
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// parseNumber accepts "30", "30.0", "75%" and "1,234"; rejects NaN/Inf.
func parseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if isInvalidCell(s) {
		return 0, fmt.Errorf("empty value")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", raw)
	}
	return f, nil
}
