package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func xlsxBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDetectFileKind(t *testing.T) {
	assert.Equal(t, KindCSV, DetectFileKind("a.CSV"))
	assert.Equal(t, KindXLSX, DetectFileKind("report.xlsx"))
	assert.Equal(t, KindXLSX, DetectFileKind("macro.xlsm"))
	assert.Equal(t, KindXLS, DetectFileKind("old.xls"))
	assert.Equal(t, KindUnknown, DetectFileKind("notes.txt"))
	assert.Equal(t, KindUnknown, DetectFileKind("noext"))
}

func TestReadWorksheet_CSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfRegistration No, Name \nR1,\"Asha, K\"\nR2\n")

	ws, err := ReadWorksheet("sheet.csv", data)
	require.NoError(t, err)

	require.Equal(t, 3, ws.NumRows())
	assert.Equal(t, "Registration No", ws.Cell(0, 0))
	assert.Equal(t, "Name", ws.Cell(0, 1))
	assert.Equal(t, "Asha, K", ws.Cell(1, 1))
	assert.Equal(t, "", ws.Cell(2, 1))
	assert.Equal(t, "", ws.Cell(99, 0))
}

func TestReadWorksheet_CSVKeepsBlankLines(t *testing.T) {
	ws, err := ReadWorksheet("s.csv", []byte("title\n\n\n21CS501 - DS\n"))
	require.NoError(t, err)

	require.Equal(t, 4, ws.NumRows())
	assert.Empty(t, ws.Row(1))
	assert.Equal(t, "21CS501 - DS", ws.Cell(3, 0))
}

func TestReadWorksheet_XLSX(t *testing.T) {
	data := xlsxBytes(t, [][]interface{}{
		{"Title"},
		{"Registration No", "Attended"},
		{"R1", 30},
	})

	ws, err := ReadWorksheet("upload.xlsx", data)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", ws.Name)
	assert.Equal(t, "Attended", ws.Cell(1, 1))
	assert.Equal(t, "30", ws.Cell(2, 1))
}

func TestReadWorksheet_Errors(t *testing.T) {
	_, err := ReadWorksheet("a.csv", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = ReadWorksheet("a.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)

	_, err = ReadWorksheet("broken.xlsx", []byte("not a zip"))
	assert.ErrorIs(t, err, ErrNoSheet)

	_, err = ReadWorksheet("blank.csv", []byte("\xef\xbb\xbf"))
	assert.ErrorIs(t, err, ErrNoSheet)
}

func TestReadWorksheet_XLSRejectsNonWorkbook(t *testing.T) {
	for name, data := range map[string][]byte{
		"plain text":   []byte("Registration No,Name\nR1,Asha\n"),
		"xlsx as xls":  xlsxBytes(t, [][]interface{}{{"R1"}}),
		"short header": {0xD0, 0xCF, 0x11, 0xE0},
	} {
		t.Run(name, func(t *testing.T) {
			ws, err := ReadWorksheet("legacy.xls", data)
			assert.Nil(t, ws)
			assert.ErrorIs(t, err, ErrNoSheet)
		})
	}
}
