// file: internals/features/attendance/ingest/service/committer.go
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendance_backend/internals/features/attendance/ingest/dto"
	"attendance_backend/internals/features/attendance/records/model"
	"attendance_backend/internals/features/attendance/sheets"
)

type Committer struct {
	MinConducted int
	PairChunk    int
	BatchSize    int
	log          *zap.Logger
}

func NewCommitter(minConducted, pairChunk, batchSize int, log *zap.Logger) *Committer {
	if pairChunk <= 0 {
		pairChunk = 100
	}
	return &Committer{MinConducted: minConducted, PairChunk: pairChunk, BatchSize: batchSize, log: log}
}

// Commit writes the attendance rows of one file and fills the attendance
// counters of m. Already-present pairs are left untouched.
func (c *Committer) Commit(
	ctx context.Context,
	store Store,
	userID uuid.UUID,
	resolved *Resolved,
	tuples []sheets.AttendanceTuple,
	m *dto.IngestMetrics,
) error {
	m.TotalInFile = len(tuples)

	qualifying := make([]sheets.AttendanceTuple, 0, len(tuples))
	for _, t := range tuples {
		if t.Conducted < c.MinConducted {
			m.SkippedLowPeriods++
			continue
		}
		qualifying = append(qualifying, t)
	}
	if len(qualifying) == 0 {
		return nil
	}

	type candidate struct {
		pair  Pair
		tuple sheets.AttendanceTuple
	}
	candidates := make([]candidate, 0, len(qualifying))
	for _, t := range qualifying {
		sid, okS := resolved.Students[t.RegistrationNo]
		cid, okC := resolved.Courses[t.CourseCode]
		if !okS || !okC {
			m.MappingGaps++
			c.log.Warn("attendance row dropped: unresolved key",
				zap.Stringer("user_id", userID),
				zap.Int("row", t.Row),
				zap.String("registration_no", t.RegistrationNo),
				zap.String("course_code", t.CourseCode),
				zap.Bool("student_found", okS),
				zap.Bool("course_found", okC))
			continue
		}
		candidates = append(candidates, candidate{pair: Pair{StudentID: sid, CourseID: cid}, tuple: t})
	}
	if len(candidates) == 0 {
		return nil
	}

	present := make(map[Pair]struct{})
	for start := 0; start < len(candidates); start += c.PairChunk {
		end := min(start+c.PairChunk, len(candidates))
		chunk := make([]Pair, 0, end-start)
		for _, cd := range candidates[start:end] {
			chunk = append(chunk, cd.pair)
		}
		found, err := store.FindExistingPairs(ctx, userID, chunk)
		if err != nil {
			return fmt.Errorf("lookup existing attendance: %w", err)
		}
		for _, p := range found {
			present[p] = struct{}{}
		}
	}

	toInsert := make([]model.AttendanceRecordModel, 0, len(candidates))
	for _, cd := range candidates {
		if _, dup := present[cd.pair]; dup {
			m.SkippedDuplicate++
			continue
		}
		// a repeated row in the same file is a duplicate of the first one
		present[cd.pair] = struct{}{}
		toInsert = append(toInsert, model.AttendanceRecordModel{
			AttendanceRecordID:               uuid.New(),
			AttendanceRecordUserID:           userID,
			AttendanceRecordStudentID:        cd.pair.StudentID,
			AttendanceRecordCourseID:         cd.pair.CourseID,
			AttendanceRecordAttendedPeriods:  cd.tuple.Attended,
			AttendanceRecordConductedPeriods: cd.tuple.Conducted,
			AttendanceRecordPercentage:       model.NormalizePercentage(cd.tuple.Percentage),
		})
	}
	if len(toInsert) == 0 {
		return nil
	}

	inserted, err := store.InsertAttendance(ctx, toInsert, c.BatchSize)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	m.Inserted = int(inserted)
	// rows that lost a race with a concurrent upload
	m.SkippedDuplicate += len(toInsert) - int(inserted)
	return nil
}
