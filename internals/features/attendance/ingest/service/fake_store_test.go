package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"attendance_backend/internals/features/attendance/records/model"
)

// memStore mimics the postgres schema: unique keys behave like
// ON CONFLICT DO NOTHING and WithinTx rolls back on error.
type memStore struct {
	mu       sync.Mutex
	courses  []model.CourseModel
	students []model.StudentModel
	records  []model.AttendanceRecordModel
	logs     []model.UploadLogModel

	calls    map[string]int
	failures map[string][]error
}

func newMemStore() *memStore {
	return &memStore{calls: map[string]int{}, failures: map[string][]error{}}
}

func (m *memStore) failNext(op string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], errs...)
}

func (m *memStore) hit(op string) error {
	m.calls[op]++
	if q := m.failures[op]; len(q) > 0 {
		m.failures[op] = q[1:]
		return q[0]
	}
	return nil
}

func (m *memStore) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *memStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	c := append([]model.CourseModel(nil), m.courses...)
	s := append([]model.StudentModel(nil), m.students...)
	r := append([]model.AttendanceRecordModel(nil), m.records...)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.courses, m.students, m.records = c, s, r
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) FindCoursesByCodes(_ context.Context, userID uuid.UUID, codes []string) ([]model.CourseModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("FindCoursesByCodes"); err != nil {
		return nil, err
	}
	want := toSet(codes)
	var out []model.CourseModel
	for _, c := range m.courses {
		if _, ok := want[c.CourseCode]; ok && c.CourseUserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) InsertCourses(_ context.Context, rows []model.CourseModel) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("InsertCourses"); err != nil {
		return 0, err
	}
	var n int64
	for _, r := range rows {
		dup := false
		for _, c := range m.courses {
			if c.CourseUserID == r.CourseUserID && c.CourseCode == r.CourseCode {
				dup = true
				break
			}
		}
		if !dup {
			m.courses = append(m.courses, r)
			n++
		}
	}
	return n, nil
}

func (m *memStore) FindStudentsByRegNos(_ context.Context, userID uuid.UUID, regNos []string) ([]model.StudentModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("FindStudentsByRegNos"); err != nil {
		return nil, err
	}
	want := toSet(regNos)
	var out []model.StudentModel
	for _, s := range m.students {
		if _, ok := want[s.StudentRegistrationNo]; ok && s.StudentUserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) InsertStudents(_ context.Context, rows []model.StudentModel) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("InsertStudents"); err != nil {
		return 0, err
	}
	var n int64
	for _, r := range rows {
		dup := false
		for _, s := range m.students {
			if s.StudentUserID == r.StudentUserID && s.StudentRegistrationNo == r.StudentRegistrationNo {
				dup = true
				break
			}
		}
		if !dup {
			m.students = append(m.students, r)
			n++
		}
	}
	return n, nil
}

func (m *memStore) FindExistingPairs(_ context.Context, userID uuid.UUID, pairs []Pair) ([]Pair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("FindExistingPairs"); err != nil {
		return nil, err
	}
	want := map[Pair]struct{}{}
	for _, p := range pairs {
		want[p] = struct{}{}
	}
	var out []Pair
	for _, r := range m.records {
		p := Pair{StudentID: r.AttendanceRecordStudentID, CourseID: r.AttendanceRecordCourseID}
		if _, ok := want[p]; ok && r.AttendanceRecordUserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) InsertAttendance(_ context.Context, rows []model.AttendanceRecordModel, _ int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("InsertAttendance"); err != nil {
		return 0, err
	}
	var n int64
	for _, r := range rows {
		dup := false
		for _, e := range m.records {
			if e.AttendanceRecordUserID == r.AttendanceRecordUserID &&
				e.AttendanceRecordStudentID == r.AttendanceRecordStudentID &&
				e.AttendanceRecordCourseID == r.AttendanceRecordCourseID {
				dup = true
				break
			}
		}
		if !dup {
			m.records = append(m.records, r)
			n++
		}
	}
	return n, nil
}

func (m *memStore) InsertUploadLog(_ context.Context, row *model.UploadLogModel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.hit("InsertUploadLog"); err != nil {
		return err
	}
	m.logs = append(m.logs, *row)
	return nil
}

func (m *memStore) PruneUploadLogs(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.logs[:0]
	var n int64
	for _, l := range m.logs {
		if l.UploadLogCreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	m.logs = kept
	return n, nil
}

func (m *memStore) recordsOf(userID uuid.UUID) []model.AttendanceRecordModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AttendanceRecordModel
	for _, r := range m.records {
		if r.AttendanceRecordUserID == userID {
			out = append(out, r)
		}
	}
	return out
}

func (m *memStore) studentsOf(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.students {
		if s.StudentUserID == userID {
			n++
		}
	}
	return n
}

func (m *memStore) coursesOf(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.courses {
		if c.CourseUserID == userID {
			n++
		}
	}
	return n
}

func toSet(keys []string) map[string]struct{} {
	out := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		out[k] = struct{}{}
	}
	return out
}
