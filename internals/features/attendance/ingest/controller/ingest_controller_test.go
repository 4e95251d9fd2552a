package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"attendance_backend/internals/configs"
	"attendance_backend/internals/features/attendance/ingest/dto"
	"attendance_backend/internals/features/attendance/ingest/service"
	"attendance_backend/internals/features/attendance/records/model"
)

// logOnlyStore serves requests that fail before touching attendance tables.
type logOnlyStore struct {
	service.Store
	logs []*model.UploadLogModel
}

func (s *logOnlyStore) InsertUploadLog(_ context.Context, row *model.UploadLogModel) error {
	s.logs = append(s.logs, row)
	return nil
}

func newTestApp(store service.Store, userID uuid.UUID, maxFiles int) *fiber.App {
	policy := configs.DefaultIngestPolicy()
	policy.MaxFiles = maxFiles
	svc := service.NewService(store, nil, policy, configs.DefaultLayoutPolicy(), zap.NewNop())

	app := fiber.New()
	user := app.Group("/api/u", func(c *fiber.Ctx) error {
		if userID != uuid.Nil {
			c.Locals("user_id", userID.String())
		}
		return c.Next()
	})
	ctl := NewIngestController(svc, policy.MaxFileBytes, zap.NewNop())
	user.Post("/attendance/upload", ctl.Upload)
	return app
}

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for name, content := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func upload(t *testing.T, app *fiber.App, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/u/attendance/upload", body)
	if contentType != "" {
		req.Header.Set(fiber.HeaderContentType, contentType)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestUpload_RequiresUser(t *testing.T) {
	app := newTestApp(&logOnlyStore{}, uuid.Nil, 5)
	body, ct := multipartBody(t, "files", map[string]string{"a.csv": "x"})
	status, env := upload(t, app, body, ct)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)
}

func TestUpload_RejectsMissingFiles(t *testing.T) {
	app := newTestApp(&logOnlyStore{}, uuid.New(), 5)

	status, _ := upload(t, app, bytes.NewBufferString("{}"), fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, status)

	body, ct := multipartBody(t, "other", map[string]string{"a.csv": "x"})
	status, env := upload(t, app, body, ct)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "no files")
}

func TestUpload_TooManyFiles(t *testing.T) {
	app := newTestApp(&logOnlyStore{}, uuid.New(), 1)
	body, ct := multipartBody(t, "files", map[string]string{"a.csv": "x", "b.csv": "y"})
	status, env := upload(t, app, body, ct)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "too many files")
}

func TestUpload_AllFilesFailedReportsEachFile(t *testing.T) {
	store := &logOnlyStore{}
	app := newTestApp(store, uuid.New(), 5)
	body, ct := multipartBody(t, "files", map[string]string{"notes.txt": "hello", "empty.csv": ""})

	status, env := upload(t, app, body, ct)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "notes.txt")

	var res dto.BatchResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	for _, f := range res.Files {
		assert.False(t, f.Success)
		assert.NotEmpty(t, f.Error)
	}
	assert.Len(t, store.logs, 2)
}
