package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"attendance_backend/internals/features/attendance/ingest/dto"
	"attendance_backend/internals/features/attendance/sheets"
)

func TestCommitter_ChunksExistingLookupAndDropsMappingGaps(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	course := uuid.New()

	resolved := &Resolved{Students: map[string]uuid.UUID{}, Courses: map[string]uuid.UUID{"21CS501": course}}
	var tuples []sheets.AttendanceTuple
	for i := 0; i < 250; i++ {
		reg := fmt.Sprintf("R%03d", i)
		resolved.Students[reg] = uuid.New()
		tuples = append(tuples, sheets.AttendanceTuple{RegistrationNo: reg, CourseCode: "21CS501", Attended: 10, Conducted: 20, Percentage: 50})
	}
	tuples = append(tuples,
		sheets.AttendanceTuple{RegistrationNo: "GHOST", CourseCode: "21CS501", Attended: 1, Conducted: 10},
		sheets.AttendanceTuple{RegistrationNo: "R000", CourseCode: "99ZZ999", Attended: 1, Conducted: 10},
		// repeated row in the same file
		sheets.AttendanceTuple{RegistrationNo: "R001", CourseCode: "21CS501", Attended: 11, Conducted: 20},
	)

	c := NewCommitter(5, 100, 1000, zap.NewNop())
	var m dto.IngestMetrics
	require.NoError(t, c.Commit(context.Background(), store, user, resolved, tuples, &m))

	assert.Equal(t, 253, m.TotalInFile)
	assert.Equal(t, 250, m.Inserted)
	assert.Equal(t, 1, m.SkippedDuplicate)
	assert.Equal(t, 2, m.MappingGaps)
	assert.Equal(t, 3, store.count("FindExistingPairs"))
	assert.Equal(t, 1, store.count("InsertAttendance"))

	recs := store.recordsOf(user)
	require.Len(t, recs, 250)
	assert.Equal(t, 50.0, recs[0].AttendanceRecordPercentage)
}

func TestCommitter_PercentageIsNormalized(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	sid, cid := uuid.New(), uuid.New()
	resolved := &Resolved{Students: map[string]uuid.UUID{"R1": sid}, Courses: map[string]uuid.UUID{"C": cid}}

	var m dto.IngestMetrics
	err := NewCommitter(5, 100, 10, zap.NewNop()).Commit(context.Background(), store, user, resolved,
		[]sheets.AttendanceTuple{{RegistrationNo: "R1", CourseCode: "C", Attended: 2, Conducted: 6, Percentage: 33.3333}}, &m)
	require.NoError(t, err)

	assert.Equal(t, 33.3, store.recordsOf(user)[0].AttendanceRecordPercentage)
}
