// file: internals/features/attendance/records/controller/records_controller.go
package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"attendance_backend/internals/features/attendance/records/dto"
	"attendance_backend/internals/features/attendance/records/service"
	helper "attendance_backend/internals/helpers"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

/* =======================================================
   CONTROLLER
   ======================================================= */

type RecordsController struct {
	Service  *service.Service
	Validate *validator.Validate
	Log      *zap.Logger
}

func NewRecordsController(svc *service.Service, v *validator.Validate, log *zap.Logger) *RecordsController {
	if v == nil {
		v = helper.Validate
	}
	return &RecordsController{Service: svc, Validate: v, Log: log.Named("records.http")}
}

func reqCtx(c *fiber.Ctx) context.Context {
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}

// parseFilter reads course, threshold, search and exclude_courses (comma list,
// repeatable) from the query string.
func parseFilter(c *fiber.Ctx) (dto.Filter, error) {
	f := dto.Filter{
		Course: strings.TrimSpace(c.Query("course")),
		Search: strings.TrimSpace(c.Query("search")),
	}
	if raw := strings.TrimSpace(c.Query("threshold")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "threshold must be a number")
		}
		f.Threshold = &v
	}
	for _, raw := range c.Context().QueryArgs().PeekMulti("exclude_courses") {
		for _, code := range strings.Split(string(raw), ",") {
			if code = strings.TrimSpace(code); code != "" {
				f.ExcludeCourses = append(f.ExcludeCourses, code)
			}
		}
	}
	return f, nil
}

func (ctl *RecordsController) filterFrom(c *fiber.Ctx) (dto.Filter, error) {
	f, err := parseFilter(c)
	if err != nil {
		return f, err
	}
	if err := ctl.Validate.Struct(f); err != nil {
		return f, err
	}
	return f, nil
}

// fail maps service errors onto the JSON envelope without leaking internals.
func (ctl *RecordsController) fail(c *fiber.Ctx, userID uuid.UUID, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		ctl.Log.Warn(op+" timed out", zap.String("user_id", userID.String()), zap.Error(err))
		return helper.JsonError(c, fiber.StatusServiceUnavailable, "database busy, please retry")
	}
	ctl.Log.Error(op+" failed", zap.String("user_id", userID.String()), zap.Error(err))
	return helper.JsonError(c, fiber.StatusInternalServerError, "could not "+op)
}

func (ctl *RecordsController) badFilter(c *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return helper.ValidationError(c, err)
	}
	return helper.FromFiberError(c, err)
}

/* ============================ READ ============================ */

// GET /attendance/records
func (ctl *RecordsController) List(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	f, err := ctl.filterFrom(c)
	if err != nil {
		return ctl.badFilter(c, err)
	}
	p := helper.ParseFiber(c, helper.DefaultOpts)
	q := dto.ListQuery{Filter: f, Page: p.Page, PerPage: p.PerPage}
	if err := ctl.Validate.Struct(q); err != nil {
		return ctl.badFilter(c, err)
	}

	res, err := ctl.Service.ListRecords(reqCtx(c), userID, q)
	if err != nil {
		return ctl.fail(c, userID, "list records", err)
	}
	return helper.JsonOK(c, "ok", res)
}

// GET /attendance/stats
func (ctl *RecordsController) Stats(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	stats, err := ctl.Service.DashboardStats(reqCtx(c), userID)
	if err != nil {
		return ctl.fail(c, userID, "load stats", err)
	}
	return helper.JsonOK(c, "ok", stats)
}

// GET /attendance/stats/filtered
func (ctl *RecordsController) FilteredStats(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	f, err := ctl.filterFrom(c)
	if err != nil {
		return ctl.badFilter(c, err)
	}
	stats, err := ctl.Service.FilteredStats(reqCtx(c), userID, f)
	if err != nil {
		return ctl.fail(c, userID, "load filtered stats", err)
	}
	return helper.JsonOK(c, "ok", stats)
}

// GET /attendance/courses
func (ctl *RecordsController) Courses(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	courses, err := ctl.Service.ListCourses(reqCtx(c), userID)
	if err != nil {
		return ctl.fail(c, userID, "list courses", err)
	}
	return helper.JsonOK(c, "ok", courses)
}

// GET /attendance/uploads
func (ctl *RecordsController) Uploads(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	logs, err := ctl.Service.ListUploads(reqCtx(c), userID)
	if err != nil {
		return ctl.fail(c, userID, "list uploads", err)
	}
	return helper.JsonOK(c, "ok", logs)
}

// GET /attendance/export
func (ctl *RecordsController) Export(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	f, err := ctl.filterFrom(c)
	if err != nil {
		return ctl.badFilter(c, err)
	}
	data, truncated, err := ctl.Service.ExportRecords(reqCtx(c), userID, f)
	if err != nil {
		return ctl.fail(c, userID, "export records", err)
	}

	name := fmt.Sprintf("attendance_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, xlsxMime)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Set("X-Export-Truncated", strconv.FormatBool(truncated))
	return c.Status(fiber.StatusOK).Send(data)
}

/* ============================ WRITE ============================ */

// DELETE /attendance/records/:id
func (ctl *RecordsController) Delete(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	recordID, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid record id")
	}
	ok, err := ctl.Service.DeleteRecord(reqCtx(c), userID, recordID)
	if err != nil {
		return ctl.fail(c, userID, "delete record", err)
	}
	if !ok {
		return helper.JsonError(c, fiber.StatusNotFound, "record not found")
	}
	return helper.JsonDeleted(c, "record deleted", fiber.Map{"deleted": true})
}

// DELETE /attendance/clear
func (ctl *RecordsController) Clear(c *fiber.Ctx) error {
	userID, err := helper.GetUserIDFromToken(c)
	if err != nil {
		return helper.FromFiberError(c, err)
	}
	ok, err := ctl.Service.ClearAllData(reqCtx(c), userID)
	if err != nil {
		return ctl.fail(c, userID, "clear data", err)
	}
	return helper.JsonDeleted(c, "all attendance data cleared", fiber.Map{"cleared": ok})
}
