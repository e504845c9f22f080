// Package export renders an event's attendance list as an .xlsx
// workbook for download.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/xuri/excelize/v2"

	"checkin/internal/event"
)

// ErrNoAttendees is returned when exporting an event nobody checked
// in to. The caller surfaces it as an operator notice; no file is made.
var ErrNoAttendees = errors.New("no attendees to export")

const sheetName = "Attendance"

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Filename derives the download name from the sanitized event name and
// its date.
func Filename(evt event.Event) string {
	return fmt.Sprintf("%s_Attendance_%s.xlsx", unsafeName.ReplaceAllString(evt.Name, "_"), evt.Date)
}

// Workbook renders the attendee list into an in-memory xlsx file.
func Workbook(evt event.Event) (*bytes.Buffer, error) {
	if len(evt.Attendees) == 0 {
		return nil, ErrNoAttendees
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	headers := []string{"Student ID", "Full Name", "Department", "Email", "Check-in Time"}
	widths := []float64{15, 30, 25, 30, 22}
	for i, h := range headers {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, col+"1", h); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, col, col, widths[i]); err != nil {
			return nil, err
		}
	}

	for i, a := range evt.Attendees {
		row := i + 2
		values := []interface{}{a.StudentID, a.FullName, a.Department, a.Email, displayTime(a.Timestamp)}
		for j, v := range values {
			col, err := excelize.ColumnNumberToName(j + 1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row), v); err != nil {
				return nil, err
			}
		}
	}

	return f.WriteToBuffer()
}

// displayTime turns the stored RFC3339 stamp into a short localized
// form; unparseable stamps pass through unchanged.
func displayTime(stamp string) string {
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return stamp
	}
	return t.Local().Format("1/2/06, 3:04 PM")
}
