// file: internals/features/attendance/sheets/parser.go
package sheets

import (
	"errors"
	"fmt"
)

var ErrNoCourses = errors.New("no course headers found")

// ParsedSheet is everything pulled out of one upload before it touches the
// database.
type ParsedSheet struct {
	Sheet      string
	Layout     CourseLayout
	DataStart  int // 0-based
	Columns    ColumnMap
	Extraction Extraction
	Warnings   []string
}

type Parser struct {
	Detector  LayoutDetector
	Extractor Extractor
}

func NewParser(detector LayoutDetector, maxConducted float64) *Parser {
	return &Parser{Detector: detector, Extractor: Extractor{MaxConducted: maxConducted}}
}

// Parse runs detect -> map -> extract. Only file-level problems return an
// error; row problems land in Extraction.Issues.
func (p *Parser) Parse(filename string, data []byte) (*ParsedSheet, error) {
	ws, err := ReadWorksheet(filename, data)
	if err != nil {
		return nil, err
	}
	return p.ParseWorksheet(ws)
}

func (p *Parser) ParseWorksheet(ws *Worksheet) (*ParsedSheet, error) {
	layout := p.Detector.DetectCourses(ws)
	if layout.Empty() {
		return nil, ErrNoCourses
	}

	dataStart := p.Detector.DetectDataStart(ws)
	if dataStart < 1 {
		return nil, fmt.Errorf("%w: data starts before any header row", ErrNoRegistrationColumn)
	}
	cols, err := MapColumns(ws.Row(dataStart-1), layout)
	if err != nil {
		return nil, err
	}

	out := &ParsedSheet{
		Sheet:     ws.Name,
		Layout:    layout,
		DataStart: dataStart,
		Columns:   cols,
	}
	for _, c := range cols.UnmappedCourses {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("course %s has no attended column; its attendance was not imported", c.Code))
	}
	if n := len(cols.SurplusAttended); n > 0 {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("%d attended column(s) have no matching course header", n))
	}

	out.Extraction = p.Extractor.Extract(ws, dataStart, cols, layout)
	return out, nil
}
