// file: internals/features/attendance/sheets/worksheet.go
package sheets

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type")
	ErrNoSheet         = errors.New("no usable sheet")
	ErrEmptyFile       = errors.New("file is empty")
)

type FileKind int

const (
	KindUnknown FileKind = iota
	KindCSV
	KindXLSX
	KindXLS
)

// DetectFileKind picks the parser from the extension only.
func DetectFileKind(filename string) FileKind {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".csv":
		return KindCSV
	case ".xlsx", ".xlsm":
		return KindXLSX
	case ".xls":
		return KindXLS
	default:
		return KindUnknown
	}
}

// Worksheet is the first sheet of an upload as trimmed cell text. Rows may be
// ragged; use Cell for bounds-safe access.
type Worksheet struct {
	Name string
	Rows [][]string
}

func (w *Worksheet) NumRows() int { return len(w.Rows) }

func (w *Worksheet) Row(i int) []string {
	if i < 0 || i >= len(w.Rows) {
		return nil
	}
	return w.Rows[i]
}

func (w *Worksheet) Cell(row, col int) string {
	r := w.Row(row)
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// ReadWorksheet parses the first sheet of data. CSV counts as a single sheet.
func ReadWorksheet(filename string, data []byte) (*Worksheet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	var (
		ws  *Worksheet
		err error
	)
	switch DetectFileKind(filename) {
	case KindCSV:
		ws, err = readCSV(data)
	case KindXLSX:
		ws, err = readXLSX(data)
	case KindXLS:
		ws, err = readXLS(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}
	if ws.NumRows() == 0 {
		return nil, fmt.Errorf("%w: sheet %q has no rows", ErrNoSheet, ws.Name)
	}
	return ws, nil
}

func readCSV(data []byte) (*Worksheet, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	// encoding/csv drops empty lines; re-insert them so row numbers match the
	// sheet the user sees.
	var (
		rows  [][]string
		ended int
		prev  int64
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: parse csv: %v", ErrNoSheet, err)
		}
		line, _ := reader.FieldPos(0)
		for i := ended; i < line-1; i++ {
			rows = append(rows, nil)
		}
		rows = append(rows, trimCells(record))

		off := reader.InputOffset()
		ended += bytes.Count(data[prev:off], []byte{'\n'})
		prev = off
	}
	return &Worksheet{Name: "csv", Rows: rows}, nil
}

func readXLSX(data []byte) (*Worksheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", ErrNoSheet, err)
	}
	defer f.Close()

	sheetsList := f.GetSheetList()
	if len(sheetsList) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrNoSheet)
	}
	name := sheetsList[0]
	raw, err := f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", ErrNoSheet, name, err)
	}
	rows := make([][]string, len(raw))
	for i, r := range raw {
		rows[i] = trimCells(r)
	}
	return &Worksheet{Name: name, Rows: rows}, nil
}

// readXLS recovers from panics in the BIFF decoder, which indexes
// truncated containers without bounds checks.
func readXLS(data []byte) (ws *Worksheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			ws, err = nil, fmt.Errorf("%w: corrupt xls: %v", ErrNoSheet, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: open xls: %v", ErrNoSheet, err)
	}
	// OpenReader returns (nil, nil) when the container has no Workbook stream.
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream", ErrNoSheet)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrNoSheet)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%w: first sheet unreadable", ErrNoSheet)
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		last := row.LastCol()
		cells := make([]string, last)
		for c := row.FirstCol(); c < last; c++ {
			cells[c] = strings.TrimSpace(row.Col(c))
		}
		rows = append(rows, cells)
	}
	return &Worksheet{Name: sheet.Name, Rows: rows}, nil
}

func trimCells(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(v)
	}
	return out
}
