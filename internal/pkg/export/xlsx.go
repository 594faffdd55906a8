package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Built-in number format 49 is "@", plain text.
const textNumFmt = 49

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

type styles struct {
	title, subtitle, header int
	cell                    map[[2]bool]int // keyed by {centered, text}
}

func newStyles(f *excelize.File) (*styles, error) {
	s := &styles{cell: make(map[[2]bool]int, 4)}
	var err error

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 18},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, err
	}
	if s.subtitle, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Border:    thinBorder,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, err
	}

	for _, centered := range []bool{false, true} {
		for _, text := range []bool{false, true} {
			style := &excelize.Style{
				Border:    thinBorder,
				Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
			}
			if centered {
				style.Alignment.Horizontal = "center"
			}
			if text {
				style.NumFmt = textNumFmt
			}
			id, err := f.NewStyle(style)
			if err != nil {
				return nil, err
			}
			s.cell[[2]bool{centered, text}] = id
		}
	}
	return s, nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// WriteXLSX renders sheet as an xlsx workbook into w
func WriteXLSX(w io.Writer, sheet Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	name := sheet.Name
	lastCol := len(sheet.Columns)

	if err := f.SetCellStr(name, cell(1, TitleRow), sheet.Title); err != nil {
		return err
	}
	if err := f.SetCellStr(name, cell(1, SubtitleRow), sheet.Subtitle); err != nil {
		return err
	}
	for _, merge := range []struct{ row, style int }{{TitleRow, st.title}, {SubtitleRow, st.subtitle}} {
		if err := f.MergeCell(name, cell(1, merge.row), cell(lastCol, merge.row)); err != nil {
			return fmt.Errorf("merge row %d: %w", merge.row, err)
		}
		if err := f.SetCellStyle(name, cell(1, merge.row), cell(lastCol, merge.row), merge.style); err != nil {
			return err
		}
	}

	for i, col := range sheet.Columns {
		c := i + 1
		if err := f.SetCellStr(name, cell(c, HeaderRow), col.Header); err != nil {
			return err
		}
		colName, err := excelize.ColumnNumberToName(c)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, colName, colName, float64(col.Width)); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(name, cell(1, HeaderRow), cell(lastCol, HeaderRow), st.header); err != nil {
		return err
	}

	for r, row := range sheet.Rows {
		rowNum := sheet.FirstDataRow() + r
		for i, v := range row {
			// Every value is written as a string so identifiers never turn into numbers.
			if err := f.SetCellStr(name, cell(i+1, rowNum), v); err != nil {
				return err
			}
		}
	}
	if len(sheet.Rows) > 0 {
		for i, col := range sheet.Columns {
			c := i + 1
			style := st.cell[[2]bool{col.Centered, col.Text}]
			if err := f.SetCellStyle(name, cell(c, sheet.FirstDataRow()), cell(c, sheet.LastRow()), style); err != nil {
				return err
			}
		}
	}

	filterRange := cell(1, HeaderRow) + ":" + cell(lastCol, sheet.LastRow())
	if err := f.AutoFilter(name, filterRange, nil); err != nil {
		return fmt.Errorf("auto filter: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
