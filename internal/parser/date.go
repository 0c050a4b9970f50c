package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

const isoDate = "2006-01-02"

var (
	reDayMonthYear = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	reISODate      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// NormalizeDate converts a date cell to YYYY-MM-DD. Accepted inputs are
// D/M/YYYY (day first), YYYY-MM-DD and, for numeric cells only, a spreadsheet
// serial date in the workbook's date system. The empty string means the cell
// could not be read as a calendar date.
func NormalizeDate(c Cell, date1904 bool) string {
	if c.Empty() {
		return ""
	}

	if m := reDayMonthYear.FindStringSubmatch(c.Value); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return validDate(fmt.Sprintf("%04d-%02d-%02d", year, month, day))
	}

	if reISODate.MatchString(c.Value) {
		return validDate(c.Value)
	}

	if c.Numeric {
		serial, ok := ParseNumber(c.Value)
		if !ok || serial < 1 {
			return ""
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return ""
		}
		return t.Format(isoDate)
	}

	return ""
}

// validDate rejects strings that look right but name no calendar day.
func validDate(s string) string {
	if _, err := time.Parse(isoDate, s); err != nil {
		return ""
	}
	return s
}
