// file: internals/features/attendance/sheets/layout.go
package sheets

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// "<code> - <name>", code = two digits + 4-5 alphanumerics (e.g. "21CS501").
var coursePattern = regexp.MustCompile(`^(\d{2}[A-Za-z0-9]{4,5})\s*[-–—]\s*(.*\S)$`)

var dataHeaderMarkers = []string{
	"admission no",
	"registration no",
	"student name",
	"admission number",
	"registration number",
}

type CourseInfo struct {
	Code   string
	Name   string
	Column int
}

// CourseLayout lists detected courses ordered by column. Row is -1 when no
// candidate row matched.
type CourseLayout struct {
	Row     int
	Courses []CourseInfo
}

func (l CourseLayout) Empty() bool { return len(l.Courses) == 0 }

// NameOf resolves a course name by code; blank when unknown.
func (l CourseLayout) NameOf(code string) string {
	for _, c := range l.Courses {
		if c.Code == code {
			return c.Name
		}
	}
	return ""
}

// LayoutDetector locates course metadata and the first student row. Swap the
// implementation to support a different export convention.
type LayoutDetector interface {
	DetectCourses(ws *Worksheet) CourseLayout
	DetectDataStart(ws *Worksheet) int
}

// HeaderScanDetector scores each row of a small window by the number of
// course-shaped cells and keeps the best one.
type HeaderScanDetector struct {
	fromRow     int // 0-based, inclusive
	toRow       int // 0-based, inclusive
	fallbackRow int // 0-based
}

// NewHeaderScanDetector takes 1-based sheet row numbers.
func NewHeaderScanDetector(courseRowFrom, courseRowTo, fallbackDataRow int) *HeaderScanDetector {
	if courseRowFrom < 1 {
		courseRowFrom = 1
	}
	if courseRowTo < courseRowFrom {
		courseRowTo = courseRowFrom
	}
	if fallbackDataRow < 1 {
		fallbackDataRow = 1
	}
	return &HeaderScanDetector{
		fromRow:     courseRowFrom - 1,
		toRow:       courseRowTo - 1,
		fallbackRow: fallbackDataRow - 1,
	}
}

func (d *HeaderScanDetector) DetectCourses(ws *Worksheet) CourseLayout {
	best := CourseLayout{Row: -1}
	for r := d.fromRow; r <= d.toRow && r < ws.NumRows(); r++ {
		courses := coursesInRow(ws.Row(r))
		// strict ">" keeps the earliest row on ties
		if len(courses) > len(best.Courses) {
			best = CourseLayout{Row: r, Courses: courses}
		}
	}
	return best
}

func (d *HeaderScanDetector) DetectDataStart(ws *Worksheet) int {
	for r := 0; r < ws.NumRows(); r++ {
		if isDataHeaderRow(ws.Row(r)) {
			return r + 1
		}
	}
	return d.fallbackRow
}

// coursesInRow returns unique course cells, first occurrence wins.
func coursesInRow(row []string) []CourseInfo {
	seen := map[string]struct{}{}
	var out []CourseInfo
	for col, cell := range row {
		code, name, ok := ParseCourseCell(cell)
		if !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, CourseInfo{Code: code, Name: name, Column: col})
	}
	return out
}

// ParseCourseCell splits "<code> - <name>". The code is upper-cased.
func ParseCourseCell(cell string) (code, name string, ok bool) {
	cell = strings.TrimSpace(norm.NFKC.String(cell))
	m := coursePattern.FindStringSubmatch(cell)
	if m == nil {
		return "", "", false
	}
	return strings.ToUpper(m[1]), strings.TrimSpace(m[2]), true
}

func isDataHeaderRow(row []string) bool {
	for _, cell := range row {
		text := NormalizeHeader(cell)
		if text == "" {
			continue
		}
		for _, marker := range dataHeaderMarkers {
			if strings.Contains(text, marker) {
				return true
			}
		}
	}
	return false
}

// NormalizeHeader folds width/compatibility forms, lower-cases and collapses
// whitespace so "Admission No." and "admission  no." compare equal.
func NormalizeHeader(cell string) string {
	cell = norm.NFKC.String(cell)
	return strings.Join(strings.Fields(strings.ToLower(cell)), " ")
}
