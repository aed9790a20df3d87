package attendance

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"
	"unicode"
)

// Record is one flat attendance row as returned by the institute service.
type Record struct {
	RegNo  string `json:"regNo"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Status string `json:"status"`
}

// Placeholder marks a (student, date) pair with no attendance record.
const Placeholder = "-"

// Row is one student line of the pivoted matrix. Marks align with the
// report's Dates.
type Row struct {
	RegNo string   `json:"regNo"`
	Name  string   `json:"name"`
	Marks []string `json:"marks"`
}

// Report is the student x date presence matrix derived from flat records.
type Report struct {
	Dates []string `json:"dates"`
	Rows  []Row    `json:"rows"`
}

func (r Report) Empty() bool {
	return len(r.Rows) == 0
}

// Pivot reshapes flat records into a matrix. Dates and registration numbers
// are distinct and sorted lexicographically on their raw values; a student's
// display name comes from the first record found for that registration
// number. Lookups are linear scans, fine at class-roster scale.
func Pivot(records []Record) Report {
	dates := uniqueSorted(records, func(r Record) string { return r.Date })
	regNos := uniqueSorted(records, func(r Record) string { return r.RegNo })

	rows := make([]Row, 0, len(regNos))
	for _, regNo := range regNos {
		row := Row{RegNo: regNo, Marks: make([]string, 0, len(dates))}
		for _, record := range records {
			if record.RegNo == regNo {
				row.Name = record.Name
				break
			}
		}
		for _, date := range dates {
			row.Marks = append(row.Marks, markFor(records, regNo, date))
		}
		rows = append(rows, row)
	}
	return Report{Dates: dates, Rows: rows}
}

// WriteCSV serializes the matrix. Every cell matches the on-screen table
// byte for byte: the header carries formatted dates, each row the status
// marks in date order.
func (r Report) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	header := make([]string, 0, len(r.Dates)+2)
	header = append(header, "Reg. No", "Name")
	for _, date := range r.Dates {
		header = append(header, FormatDate(date))
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range r.Rows {
		line := make([]string, 0, len(row.Marks)+2)
		line = append(line, row.RegNo, row.Name)
		line = append(line, row.Marks...)
		if err := writer.Write(line); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Filename names the exported report for one group and semester.
func Filename(group, semester string) string {
	return fmt.Sprintf("attendance_report_%s_sem%s.csv", group, semester)
}

// FormatDate renders an ISO date the way the console table shows it,
// e.g. 2024-01-02 -> 1/2/2024. Unparseable values pass through untouched.
func FormatDate(raw string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("1/2/2006")
		}
	}
	return raw
}

func markFor(records []Record, regNo, date string) string {
	for _, record := range records {
		if record.RegNo == regNo && record.Date == date {
			return statusMark(record.Status)
		}
	}
	return Placeholder
}

func statusMark(status string) string {
	for _, r := range status {
		return string(unicode.ToUpper(r))
	}
	return Placeholder
}

func uniqueSorted(records []Record, key func(Record) string) []string {
	seen := make(map[string]bool, len(records))
	values := make([]string, 0, len(records))
	for _, record := range records {
		value := key(record)
		if value == "" || seen[value] {
			continue
		}
		seen[value] = true
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
