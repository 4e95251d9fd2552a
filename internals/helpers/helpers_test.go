package helper

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFiber(t *testing.T) {
	tests := []struct {
		query string
		opt   Options
		want  Params
	}{
		{"", DefaultOpts, Params{Page: 1, PerPage: 25}},
		{"page=3&per_page=10", DefaultOpts, Params{Page: 3, PerPage: 10}},
		{"page=0&limit=5", DefaultOpts, Params{Page: 1, PerPage: 5}},
		{"per_page=9999", DefaultOpts, Params{Page: 1, PerPage: 200}},
		{"per_page=-4", DefaultOpts, Params{Page: 1, PerPage: 25}},
		{"per_page=all", DefaultOpts, Params{Page: 1, PerPage: 25}},
		{"page=4&per_page=all", ExportOpts, Params{Page: 1, PerPage: 10_000, All: true}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			app := fiber.New()
			var got Params
			app.Get("/", func(c *fiber.Ctx) error {
				got = ParseFiber(c, tt.opt)
				return nil
			})
			_, err := app.Test(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	p := Params{Page: 3, PerPage: 10}
	assert.Equal(t, 10, p.Limit())
	assert.Equal(t, 20, p.Offset())
}

func TestGetUserIDFromToken(t *testing.T) {
	uid := uuid.New()
	tests := []struct {
		name   string
		local  any
		status int
	}{
		{"string", uid.String(), 200},
		{"uuid", uid, 200},
		{"missing", nil, 401},
		{"blank", "  ", 401},
		{"malformed", "abc", 400},
		{"wrong type", 42, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				if tt.local != nil {
					c.Locals(LocUserID, tt.local)
				}
				id, err := GetUserIDFromToken(c)
				if err != nil {
					return FromFiberError(c, err)
				}
				assert.Equal(t, uid, id)
				return JsonOK(c, "", nil)
			})
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestCollectUploadFiles(t *testing.T) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, f := range []struct{ field, name string }{
		{"files", "a.csv"}, {"file", "b.xlsx"}, {"files[]", "c.xls"}, {"avatar", "d.png"},
	} {
		part, err := w.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("x"))
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)

	var names []string
	for _, fh := range CollectUploadFiles(form) {
		names = append(names, fh.Filename)
	}
	assert.Equal(t, []string{"a.csv", "c.xls", "b.xlsx"}, names)
	assert.Nil(t, CollectUploadFiles(nil))
}
