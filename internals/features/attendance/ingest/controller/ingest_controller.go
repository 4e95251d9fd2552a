// file: internals/features/attendance/ingest/controller/ingest_controller.go
package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"attendance_backend/internals/features/attendance/ingest/service"
	helper "attendance_backend/internals/helpers"
)

type IngestController struct {
	Service      *service.Service
	MaxFileBytes int64
	Log          *zap.Logger
}

func NewIngestController(svc *service.Service, maxFileBytes int64, log *zap.Logger) *IngestController {
	return &IngestController{Service: svc, MaxFileBytes: maxFileBytes, Log: log.Named("ingest.http")}
}

func reqCtx(c *fiber.Ctx) context.Context {
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}

/* ============================ UPLOAD ============================ */

// POST /attendance/upload (multipart "files", one or more)
func (ctl *IngestController) Upload(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "expected multipart form with field \"files\"")
	}
	headers := helper.CollectUploadFiles(form)
	if len(headers) == 0 {
		return helper.JsonError(c, fiber.StatusBadRequest, service.ErrNoFiles.Error())
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		data, err := ctl.readFile(fh)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, fmt.Sprintf("%s: %s", fh.Filename, err.Error()))
		}
		files = append(files, service.UploadFile{Filename: fh.Filename, Data: data})
	}

	res, err := ctl.Service.IngestBatch(reqCtx(c), userID, files)
	switch {
	case err == nil:
		msg := fmt.Sprintf("%d of %d file(s) processed", res.Succeeded, len(res.Files))
		return helper.JsonOK(c, msg, res)
	case errors.Is(err, service.ErrNoFiles), errors.Is(err, service.ErrTooManyFiles):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAllFilesFailed):
		return helper.JsonErrorWith(c, fiber.StatusUnprocessableEntity, err.Error(), res)
	default:
		ctl.Log.Error("batch upload failed", zap.String("user_id", userID.String()), zap.Error(err))
		return helper.JsonError(c, fiber.StatusInternalServerError, "upload failed")
	}
}

// readFile reads one part, refusing more than MaxFileBytes. Oversized parts are
// passed on truncated by one byte so the service reports them per file.
func (ctl *IngestController) readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("could not read file")
	}
	defer f.Close()

	var r io.Reader = f
	if ctl.MaxFileBytes > 0 {
		r = io.LimitReader(f, ctl.MaxFileBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New("could not read file")
	}
	return data, nil
}
