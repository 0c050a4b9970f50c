package excel

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"kidbloom/internal/parser"
)

var (
	// ErrUnreadableWorkbook means the upload is neither an .xlsx nor an .xls
	// workbook that can be opened.
	ErrUnreadableWorkbook = errors.New("file is not a readable spreadsheet")
	// ErrNoSheet means the workbook has no worksheet to read.
	ErrNoSheet = errors.New("workbook has no sheets")
)

// oleSignature starts every legacy .xls (OLE2 compound) file.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Sheet is the first worksheet of an upload: its header row and data rows.
type Sheet struct {
	Name     string
	Headers  []string
	Rows     []parser.Row
	Date1904 bool
}

// LoadWorkbook reads the first sheet of an uploaded .xlsx or .xls workbook.
func LoadWorkbook(r io.Reader) (*Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read workbook")
	}
	if bytes.HasPrefix(data, oleSignature) {
		return loadLegacyWorkbook(data)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(ErrUnreadableWorkbook, err.Error())
	}
	defer wb.Close()

	return ReadFirstSheet(wb)
}

// ReadFirstSheet treats row 1 as headers and every later row as data.
// Cell values are read raw so numeric cells keep their serial form.
func ReadFirstSheet(wb *excelize.File) (*Sheet, error) {
	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	name := sheets[0]

	rows, err := wb.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.Wrap(ErrUnreadableWorkbook, err.Error())
	}

	date1904 := false
	if props, err := wb.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	return newSheet(name, rows, date1904, func(col, row int) bool {
		return isNumericCell(wb, name, col, row)
	}), nil
}

// newSheet builds a Sheet from a grid of raw cell text. numeric reports,
// for a 0-based column and a 1-based sheet row, whether the workbook stored
// the cell as a number.
func newSheet(name string, grid [][]string, date1904 bool, numeric func(col, row int) bool) *Sheet {
	sheet := &Sheet{Name: name, Date1904: date1904}
	if len(grid) == 0 {
		return sheet
	}

	// column index -> header, first occurrence of a header wins
	columns := make(map[int]string, len(grid[0]))
	seen := make(map[string]struct{}, len(grid[0]))
	for i, raw := range grid[0] {
		h := parser.NormalizeHeader(raw)
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		columns[i] = h
		sheet.Headers = append(sheet.Headers, h)
	}

	// row numbers follow the sheet; blank rows are skipped, not renumbered
	for i, values := range grid[1:] {
		rowNum := i + 2
		row := parser.Row{Number: rowNum, Cells: make(map[string]parser.Cell, len(columns))}
		for col, header := range columns {
			if col >= len(values) {
				continue
			}
			cell := parser.Cell{Value: strings.TrimSpace(values[col])}
			if cell.Empty() {
				continue
			}
			cell.Numeric = numeric(col, rowNum)
			row.Cells[header] = cell
		}
		if len(row.Cells) == 0 {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet
}

func isNumericCell(wb *excelize.File, sheet string, col, row int) bool {
	ref, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return false
	}
	typ, err := wb.GetCellType(sheet, ref)
	if err != nil {
		return false
	}
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeDate, excelize.CellTypeUnset:
		return true
	default:
		return false
	}
}

// loadLegacyWorkbook reads the first sheet of a BIFF (.xls) workbook. The
// reader hands back cell text only: number cells arrive as plain decimals
// and cells with a custom date format as RFC 3339 timestamps.
func loadLegacyWorkbook(data []byte) (sheet *Sheet, err error) {
	// the BIFF reader panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			sheet, err = nil, errors.Wrapf(ErrUnreadableWorkbook, "xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, errors.Wrap(ErrUnreadableWorkbook, err.Error())
	}
	if wb == nil {
		return nil, errors.Wrap(ErrUnreadableWorkbook, "xls: no workbook stream")
	}
	if wb.NumSheets() == 0 {
		return nil, ErrNoSheet
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, ErrNoSheet
	}

	numeric := make(map[[2]int]bool)
	grid := make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := legacyRow(ws, i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		values := make([]string, row.LastCol())
		for col := row.FirstCol(); col < row.LastCol(); col++ {
			v, isNumber := legacyCell(row.Col(col))
			values[col] = v
			if isNumber {
				numeric[[2]int{col, i + 1}] = true
			}
		}
		grid = append(grid, values)
	}

	// the reader keeps the workbook's date system to itself; 1900 is assumed
	return newSheet(ws.Name, grid, false, func(col, row int) bool {
		return numeric[[2]int{col, row}]
	}), nil
}

// legacyRow returns nil for rows the sheet does not store; the reader's
// Row panics on those.
func legacyRow(ws *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return ws.Row(i)
}

// legacyCell turns a BIFF cell string into the raw form the row importers
// expect: date timestamps become YYYY-MM-DD text, decimals stay numeric.
func legacyCell(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Format("2006-01-02"), false
	}
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v, true
	}
	return v, false
}
