package infrastructure

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"toursApi/internal/modules/bookings/application/port"
)

const defaultSheet = "Sheet1"

// ExcelSheet writes xlsx workbooks with a bold, frozen header row.
type ExcelSheet struct {
	ColumnWidth float64
}

var _ port.Spreadsheet = ExcelSheet{}

func (x ExcelSheet) Write(w io.Writer, sheet string, header []string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if len(header) > 0 {
		last, err := excelize.ColumnNumberToName(len(header))
		if err != nil {
			return err
		}
		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("header style: %w", err)
		}
		if err := f.SetCellStyle(sheet, "A1", last+"1", bold); err != nil {
			return fmt.Errorf("style header: %w", err)
		}
		width := x.ColumnWidth
		if width <= 0 {
			width = 22
		}
		if err := f.SetColWidth(sheet, "A", last, width); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return fmt.Errorf("freeze header: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
