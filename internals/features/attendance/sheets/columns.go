// file: internals/features/attendance/sheets/columns.go
package sheets

import (
	"errors"
	"sort"
	"strings"
)

var ErrNoRegistrationColumn = errors.New("registration number column not found")

// CourseColumns is one course's contiguous (attended, conducted, percentage) block.
type CourseColumns struct {
	Course     CourseInfo
	Attended   int
	Conducted  int
	Percentage int
}

// ColumnMap holds identity column indexes (-1 when absent) and the course
// blocks. UnmappedCourses are detected courses that found no "attended"
// column; their attendance is not extracted.
type ColumnMap struct {
	AdmissionCol    int
	RegistrationCol int
	NameCol         int
	Courses         []CourseColumns
	UnmappedCourses []CourseInfo
	SurplusAttended []int
}

// MapColumns pairs "attended" header cells, left to right, with the detected
// courses ordered by their own column position.
func MapColumns(header []string, layout CourseLayout) (ColumnMap, error) {
	m := ColumnMap{AdmissionCol: -1, RegistrationCol: -1, NameCol: -1}

	var attended []int
	for col, cell := range header {
		text := NormalizeHeader(cell)
		if text == "" {
			continue
		}
		switch {
		case strings.Contains(text, "attended"):
			attended = append(attended, col)
		case strings.Contains(text, "admission"):
			if m.AdmissionCol < 0 {
				m.AdmissionCol = col
			}
		case strings.Contains(text, "registration"):
			if m.RegistrationCol < 0 {
				m.RegistrationCol = col
			}
		case strings.Contains(text, "name"):
			if m.NameCol < 0 {
				m.NameCol = col
			}
		}
	}
	if m.RegistrationCol < 0 {
		return m, ErrNoRegistrationColumn
	}

	courses := append([]CourseInfo(nil), layout.Courses...)
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].Column < courses[j].Column })

	for i, course := range courses {
		if i >= len(attended) {
			m.UnmappedCourses = append(m.UnmappedCourses, courses[i:]...)
			break
		}
		a := attended[i]
		m.Courses = append(m.Courses, CourseColumns{
			Course:     course,
			Attended:   a,
			Conducted:  a + 1,
			Percentage: a + 2,
		})
	}
	if len(attended) > len(courses) {
		m.SurplusAttended = append(m.SurplusAttended, attended[len(courses):]...)
	}
	return m, nil
}
