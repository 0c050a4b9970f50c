package excel_test

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"kidbloom/internal/service/excel"
)

// buildSheet writes headers and rows to the first sheet and loads the result
// back the way an upload would be loaded.
func buildSheet(t *testing.T, headers []string, rows ...[]any) *excel.Sheet {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetRow("Sheet1", "A1", &headers); err != nil {
		t.Fatalf("SetSheetRow headers: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		r := row
		if err := wb.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow row %d: %v", i+2, err)
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}
	sheet, err := excel.LoadWorkbook(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("LoadWorkbook: %v", err)
	}
	return sheet
}
