package render

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	titleRow  = 1
	headerRow = 3
)

// Sheet renders a table as an XLSX workbook: title on row 1, header on row 3,
// body below. Column widths come from the table columns.
func Sheet(t Table) (Document, error) {
	f := excelize.NewFile()
	defer f.Close()

	name := t.Sheet
	if name == "" {
		name = string(t.Kind)
	}
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return Document{}, fmt.Errorf("render: sheet name: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return Document{}, fmt.Errorf("render: style: %w", err)
	}

	if err := f.SetCellValue(name, cell(1, titleRow), t.Title); err != nil {
		return Document{}, err
	}
	if err := f.SetCellStyle(name, cell(1, titleRow), cell(1, titleRow), bold); err != nil {
		return Document{}, err
	}

	for i, c := range t.Columns {
		if err := f.SetCellValue(name, cell(i+1, headerRow), c.Header); err != nil {
			return Document{}, err
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return Document{}, err
		}
		if c.Width > 0 {
			if err := f.SetColWidth(name, col, col, c.Width); err != nil {
				return Document{}, err
			}
		}
	}
	if len(t.Columns) > 0 {
		if err := f.SetCellStyle(name, cell(1, headerRow), cell(len(t.Columns), headerRow), bold); err != nil {
			return Document{}, err
		}
	}

	row := headerRow + 1
	for _, r := range t.Rows {
		for i, v := range r {
			if err := f.SetCellValue(name, cell(i+1, row), v); err != nil {
				return Document{}, err
			}
		}
		row++
	}
	if t.Total {
		if err := f.SetCellValue(name, cell(1, row), "Total"); err != nil {
			return Document{}, err
		}
		if err := f.SetCellValue(name, cell(2, row), len(t.Rows)); err != nil {
			return Document{}, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Document{}, fmt.Errorf("render: write xlsx: %w", err)
	}
	return Document{
		Name:        string(t.Kind) + ".xlsx",
		ContentType: ContentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

func cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "A" + strconv.Itoa(row)
	}
	return name
}
