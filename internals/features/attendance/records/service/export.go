// file: internals/features/attendance/records/service/export.go
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"attendance_backend/internals/features/attendance/records/dto"
	helper "attendance_backend/internals/helpers"
)

// ExportHardCap bounds one export, matching the "per_page=all" cap of the
// listing endpoints.
var ExportHardCap = helper.ExportOpts.AllHardCap

var exportHeader = []interface{}{
	"Registration No", "Student Name", "Course Code", "Course Name",
	"Attended", "Conducted", "Percentage",
}

// ExportRecords renders the filtered listing, same order, as an xlsx
// workbook. truncated is true when the cap cut the result.
func (s *Service) ExportRecords(ctx context.Context, userID uuid.UUID, f dto.Filter) (data []byte, truncated bool, err error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	rows, total, err := s.store.ListRecords(ctx, userID, f.Normalize(), ExportHardCap, 0)
	if err != nil {
		return nil, false, fmt.Errorf("export records: %w", err)
	}
	data, err = renderWorkbook(rows)
	return data, total > int64(len(rows)), err
}

func renderWorkbook(rows []dto.RecordResponse) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Attendance"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, bold)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []interface{}{
			r.RegistrationNo, r.StudentName, r.CourseCode, r.CourseName,
			r.AttendedPeriods, r.ConductedPeriods, r.AttendancePercentage,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(sheet, "A", "D", 22)
	if err := f.AutoFilter(sheet, fmt.Sprintf("A1:G%d", len(rows)+1), nil); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
