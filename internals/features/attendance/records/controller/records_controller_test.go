package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"attendance_backend/internals/configs"
	"attendance_backend/internals/features/attendance/records/dto"
	"attendance_backend/internals/features/attendance/records/model"
	"attendance_backend/internals/features/attendance/records/service"
)

// stubStore records the last filter and serves fixed rows.
type stubStore struct {
	lastFilter dto.Filter
	lastLimit  int
	lastOffset int
	rows       []dto.RecordResponse
	deleted    bool
	cleared    uuid.UUID
}

func (s *stubStore) DashboardCounts(context.Context, uuid.UUID) (service.Counts, error) {
	return service.Counts{Students: 2, Courses: 1, Records: 2, Low: 1, Critical: 1}, nil
}
func (s *stubStore) FilteredCounts(_ context.Context, _ uuid.UUID, f dto.Filter) (service.Counts, error) {
	s.lastFilter = f
	return service.Counts{Students: 2, Courses: 1}, nil
}
func (s *stubStore) CountCourses(context.Context, uuid.UUID) (int64, error) { return 1, nil }
func (s *stubStore) FirstFilteredStudent(context.Context, uuid.UUID, dto.Filter) (*model.StudentModel, error) {
	return nil, nil
}
func (s *stubStore) StudentCourses(context.Context, uuid.UUID, uuid.UUID, dto.Filter) ([]dto.CourseDetail, error) {
	return nil, nil
}
func (s *stubStore) ListCourses(context.Context, uuid.UUID) ([]dto.CourseResponse, error) {
	return []dto.CourseResponse{{CourseCode: "21CS501", CourseName: "DS", RecordCount: 2}}, nil
}
func (s *stubStore) ListRecords(_ context.Context, _ uuid.UUID, f dto.Filter, limit, offset int) ([]dto.RecordResponse, int64, error) {
	s.lastFilter, s.lastLimit, s.lastOffset = f, limit, offset
	return s.rows, int64(len(s.rows)), nil
}
func (s *stubStore) ListUploads(context.Context, uuid.UUID, int) ([]model.UploadLogModel, error) {
	return nil, nil
}
func (s *stubStore) DeleteRecord(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return s.deleted, nil
}
func (s *stubStore) ClearAll(_ context.Context, userID uuid.UUID) error {
	s.cleared = userID
	return nil
}

func newTestApp(store *stubStore, userID uuid.UUID) *fiber.App {
	svc := service.NewService(store, nil, configs.CacheConfig{}, 0, zap.NewNop())
	app := fiber.New()
	user := app.Group("/api/u", func(c *fiber.Ctx) error {
		if userID != uuid.Nil {
			c.Locals("user_id", userID.String())
		}
		return c.Next()
	})
	ctl := NewRecordsController(svc, nil, zap.NewNop())
	g := user.Group("/attendance")
	g.Get("/records", ctl.List)
	g.Get("/stats", ctl.Stats)
	g.Get("/stats/filtered", ctl.FilteredStats)
	g.Get("/courses", ctl.Courses)
	g.Get("/export", ctl.Export)
	g.Delete("/records/:id", ctl.Delete)
	g.Delete("/clear", ctl.Clear)
	return app
}

type envelope struct {
	Success   bool                `json:"success"`
	Message   string              `json:"message"`
	ErrorCode string              `json:"error_code"`
	Errors    map[string][]string `json:"errors"`
	Data      json.RawMessage     `json:"data"`
}

func call(t *testing.T, app *fiber.App, method, target string) (*http.Response, envelope) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, target, nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var env envelope
	if resp.Header.Get(fiber.HeaderContentType) == fiber.MIMEApplicationJSON {
		require.NoError(t, json.Unmarshal(body, &env))
	}
	return resp, env
}

func TestList_ParsesFilterAndPaging(t *testing.T) {
	store := &stubStore{rows: []dto.RecordResponse{{RegistrationNo: "R1", CourseCode: "21CS501", AttendancePercentage: 60}}}
	app := newTestApp(store, uuid.New())

	resp, env := call(t, app, http.MethodGet,
		"/api/u/attendance/records?course=21cs501&threshold=75&search=asha&exclude_courses=21ma502,21ph503&exclude_courses=21ch504&page=2&per_page=10")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, env.Success)

	assert.Equal(t, "21CS501", store.lastFilter.Course)
	require.NotNil(t, store.lastFilter.Threshold)
	assert.Equal(t, 75.0, *store.lastFilter.Threshold)
	assert.Equal(t, "asha", store.lastFilter.Search)
	assert.Equal(t, []string{"21CH504", "21MA502", "21PH503"}, store.lastFilter.ExcludeCourses)
	assert.Equal(t, 10, store.lastLimit)
	assert.Equal(t, 10, store.lastOffset)

	var list dto.ListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 2, list.Page)
	assert.Len(t, list.Records, 1)
}

func TestList_RejectsBadThreshold(t *testing.T) {
	app := newTestApp(&stubStore{}, uuid.New())

	resp, env := call(t, app, http.MethodGet, "/api/u/attendance/records?threshold=abc")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)

	resp, env = call(t, app, http.MethodGet, "/api/u/attendance/stats/filtered?threshold=150")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, env.Errors, "threshold")
}

func TestList_RejectsOutOfRangePage(t *testing.T) {
	store := &stubStore{}
	app := newTestApp(store, uuid.New())

	resp, env := call(t, app, http.MethodGet, "/api/u/attendance/records?page=92233720368547758&per_page=200")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, env.Errors, "page")
	assert.Zero(t, store.lastLimit)
}

func TestRequiresUser(t *testing.T) {
	app := newTestApp(&stubStore{}, uuid.Nil)
	resp, env := call(t, app, http.MethodGet, "/api/u/attendance/stats")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", env.ErrorCode)
}

func TestStatsAndCourses(t *testing.T) {
	app := newTestApp(&stubStore{}, uuid.New())

	resp, env := call(t, app, http.MethodGet, "/api/u/attendance/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats dto.DashboardStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(2), stats.TotalStudents)
	assert.Equal(t, int64(1), stats.CriticalAttendanceCount)

	resp, env = call(t, app, http.MethodGet, "/api/u/attendance/courses")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var courses []dto.CourseResponse
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, "21CS501", courses[0].CourseCode)
}

func TestDelete(t *testing.T) {
	store := &stubStore{}
	app := newTestApp(store, uuid.New())

	resp, _ := call(t, app, http.MethodDelete, "/api/u/attendance/records/not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = call(t, app, http.MethodDelete, "/api/u/attendance/records/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	store.deleted = true
	resp, env := call(t, app, http.MethodDelete, "/api/u/attendance/records/"+uuid.NewString())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"deleted":true}`, string(env.Data))
}

func TestClear(t *testing.T) {
	store := &stubStore{}
	uid := uuid.New()
	app := newTestApp(store, uid)

	resp, env := call(t, app, http.MethodDelete, "/api/u/attendance/clear")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"cleared":true}`, string(env.Data))
	assert.Equal(t, uid, store.cleared)
}

func TestExport(t *testing.T) {
	store := &stubStore{rows: []dto.RecordResponse{{RegistrationNo: "R1", StudentName: "Asha", CourseCode: "21CS501"}}}
	app := newTestApp(store, uuid.New())

	resp, _ := call(t, app, http.MethodGet, "/api/u/attendance/export?course=21CS501")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxMime, resp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment;")
	assert.Equal(t, "false", resp.Header.Get("X-Export-Truncated"))
	assert.Equal(t, service.ExportHardCap, store.lastLimit)
}
