// file: internals/features/attendance/ingest/service/reconciler.go
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendance_backend/internals/features/attendance/records/model"
	"attendance_backend/internals/features/attendance/sheets"
)

// Resolved maps sheet keys to row ids within one user scope.
type Resolved struct {
	Students map[string]uuid.UUID // registration no -> student id
	Courses  map[string]uuid.UUID // course code -> course id

	NewStudents      int
	ExistingStudents int
	NewCourses       int
	ExistingCourses  int
}

// Reconciler resolves students and courses with one lookup per entity type,
// inserts the missing ones conflict-tolerantly, then re-reads so rows won by
// a concurrent upload are resolved too.
type Reconciler struct {
	log *zap.Logger
}

func NewReconciler(log *zap.Logger) *Reconciler {
	return &Reconciler{log: log}
}

func (r *Reconciler) Reconcile(
	ctx context.Context,
	store Store,
	userID uuid.UUID,
	students []sheets.StudentTuple,
	attendance []sheets.AttendanceTuple,
) (*Resolved, error) {
	out := &Resolved{}

	courseIDs, newCourses, err := r.resolveCourses(ctx, store, userID, attendance)
	if err != nil {
		return nil, err
	}
	out.Courses = courseIDs
	out.NewCourses = newCourses
	out.ExistingCourses = max(len(courseIDs)-newCourses, 0)

	studentIDs, newStudents, err := r.resolveStudents(ctx, store, userID, students)
	if err != nil {
		return nil, err
	}
	out.Students = studentIDs
	out.NewStudents = newStudents
	out.ExistingStudents = max(len(studentIDs)-newStudents, 0)

	return out, nil
}

func (r *Reconciler) resolveCourses(ctx context.Context, store Store, userID uuid.UUID, tuples []sheets.AttendanceTuple) (map[string]uuid.UUID, int, error) {
	// first occurrence wins for the name
	names := map[string]string{}
	codes := make([]string, 0)
	for _, t := range tuples {
		if _, ok := names[t.CourseCode]; ok {
			continue
		}
		names[t.CourseCode] = t.CourseName
		codes = append(codes, t.CourseCode)
	}
	if len(codes) == 0 {
		return map[string]uuid.UUID{}, 0, nil
	}

	existing, err := store.FindCoursesByCodes(ctx, userID, codes)
	if err != nil {
		return nil, 0, fmt.Errorf("lookup courses: %w", err)
	}
	ids := make(map[string]uuid.UUID, len(codes))
	for _, c := range existing {
		ids[c.CourseCode] = c.CourseID
	}

	var missing []model.CourseModel
	for _, code := range codes {
		if _, ok := ids[code]; ok {
			continue
		}
		name := names[code]
		if name == "" {
			name = code
		}
		missing = append(missing, model.CourseModel{
			CourseID:     uuid.New(),
			CourseUserID: userID,
			CourseCode:   code,
			CourseName:   name,
		})
	}
	if len(missing) == 0 {
		return ids, 0, nil
	}

	inserted, err := store.InsertCourses(ctx, missing)
	if err != nil {
		return nil, 0, fmt.Errorf("insert courses: %w", err)
	}
	if int(inserted) < len(missing) {
		r.log.Debug("course insert lost conflicts",
			zap.Stringer("user_id", userID), zap.Int("missing", len(missing)), zap.Int64("inserted", inserted))
	}

	refreshed, err := store.FindCoursesByCodes(ctx, userID, codesOfCourses(missing))
	if err != nil {
		return nil, 0, fmt.Errorf("refresh courses: %w", err)
	}
	for _, c := range refreshed {
		ids[c.CourseCode] = c.CourseID
	}
	return ids, int(inserted), nil
}

func (r *Reconciler) resolveStudents(ctx context.Context, store Store, userID uuid.UUID, tuples []sheets.StudentTuple) (map[string]uuid.UUID, int, error) {
	first := map[string]sheets.StudentTuple{}
	regNos := make([]string, 0)
	for _, t := range tuples {
		if _, ok := first[t.RegistrationNo]; ok {
			continue
		}
		first[t.RegistrationNo] = t
		regNos = append(regNos, t.RegistrationNo)
	}
	if len(regNos) == 0 {
		return map[string]uuid.UUID{}, 0, nil
	}

	existing, err := store.FindStudentsByRegNos(ctx, userID, regNos)
	if err != nil {
		return nil, 0, fmt.Errorf("lookup students: %w", err)
	}
	ids := make(map[string]uuid.UUID, len(regNos))
	for _, s := range existing {
		ids[s.StudentRegistrationNo] = s.StudentID
	}

	var missing []model.StudentModel
	var missingKeys []string
	for _, reg := range regNos {
		if _, ok := ids[reg]; ok {
			continue
		}
		t := first[reg]
		missing = append(missing, model.StudentModel{
			StudentID:             uuid.New(),
			StudentUserID:         userID,
			StudentAdmissionNo:    t.AdmissionNo,
			StudentRegistrationNo: reg,
			StudentName:           t.Name,
		})
		missingKeys = append(missingKeys, reg)
	}
	if len(missing) == 0 {
		return ids, 0, nil
	}

	inserted, err := store.InsertStudents(ctx, missing)
	if err != nil {
		return nil, 0, fmt.Errorf("insert students: %w", err)
	}

	refreshed, err := store.FindStudentsByRegNos(ctx, userID, missingKeys)
	if err != nil {
		return nil, 0, fmt.Errorf("refresh students: %w", err)
	}
	for _, s := range refreshed {
		ids[s.StudentRegistrationNo] = s.StudentID
	}
	return ids, int(inserted), nil
}

func codesOfCourses(rows []model.CourseModel) []string {
	out := make([]string, len(rows))
	for i, c := range rows {
		out[i] = c.CourseCode
	}
	return out
}
