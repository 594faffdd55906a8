// Package export turns student records into the downloadable spreadsheet.
//
// BuildSheet lays the report out without touching any file format so the
// layout can be tested directly; WriteXLSX renders a Sheet as an xlsx workbook.
package export

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/yigit/schoolrecords/internal/app/models"
)

const (
	SheetName = "DataSiswa"
	FileName  = "Data_Siswa_Lengkap.xlsx"

	Title          = "Laporan Data Siswa - Student Data Entry"
	CreatedAtLabel = "Tanggal Dibuat"

	// Row numbers are 1-based, as in the workbook.
	TitleRow    = 1
	SubtitleRow = 2
	HeaderRow   = 4

	firstColumnMinWidth = 25
	widthPadding        = 2
)

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// Column is one table column of the report
type Column struct {
	Header   string
	Text     bool // cells are stored as text so leading zeros survive
	Centered bool
	Width    int // in characters
}

// Sheet is the laid-out report
type Sheet struct {
	Name     string
	Title    string
	Subtitle string
	Columns  []Column
	Rows     [][]string
}

// FirstDataRow is the workbook row of Rows[0].
func (s Sheet) FirstDataRow() int {
	return HeaderRow + 1
}

// LastRow is the last workbook row of the table, the header row when there is no data.
func (s Sheet) LastRow() int {
	return HeaderRow + len(s.Rows)
}

// BuildSheet lays out records in the given order. Dates are rendered in
// exportedAt's location.
func BuildSheet(records []models.Student, exportedAt time.Time) Sheet {
	fields := models.StudentFields()
	loc := exportedAt.Location()

	columns := make([]Column, 0, len(fields)+1)
	for _, f := range fields {
		columns = append(columns, Column{Header: f.Label, Text: f.Text, Centered: f.Centered})
	}
	columns = append(columns, Column{Header: CreatedAtLabel, Centered: true})

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		values := rec.Profile.Values()
		row := make([]string, 0, len(columns))
		for _, f := range fields {
			v := values[f.Name]
			if f.Date {
				v = formatDate(v)
			}
			row = append(row, v)
		}
		row = append(row, formatTimestamp(rec.CreatedAt, loc))
		rows = append(rows, row)
	}

	for i := range columns {
		longest := utf8.RuneCountInString(columns[i].Header)
		for _, row := range rows {
			if n := utf8.RuneCountInString(row[i]); n > longest {
				longest = n
			}
		}
		if i == 0 && longest < firstColumnMinWidth {
			longest = firstColumnMinWidth
		}
		columns[i].Width = longest + widthPadding
	}

	return Sheet{
		Name:     SheetName,
		Title:    Title,
		Subtitle: "Tanggal Ekspor: " + FormatIndonesianDateTime(exportedAt),
		Columns:  columns,
		Rows:     rows,
	}
}

// FormatIndonesianDateTime renders t as "dd MMMM yyyy HH:mm" with Indonesian month names.
func FormatIndonesianDateTime(t time.Time) string {
	return fmt.Sprintf("%02d %s %d %02d:%02d", t.Day(), indonesianMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute())
}

// formatDate turns an ISO date into dd-MM-yyyy. Values that are not ISO dates are kept as they are.
func formatDate(v string) string {
	if v == "" {
		return ""
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return v
	}
	return d.Format("02-01-2006")
}

func formatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("02-01-2006 15:04:05")
}
