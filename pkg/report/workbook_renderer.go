package report

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const firstColumnWidth = 32
const columnWidth = 16

type WorkbookRendererImpl struct {
}

func NewWorkbookRenderer() *WorkbookRendererImpl {
	return &WorkbookRendererImpl{}
}

// RenderWorkbook writes each sheet in order into a single xlsx file.
func (r *WorkbookRendererImpl) RenderWorkbook(sheets []Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	f := excelize.NewFile()
	defer f.Close()

	headingStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E8EEF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create heading style: %w", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			err = f.SetSheetName("Sheet1", sheet.Name)
		} else {
			_, err = f.NewSheet(sheet.Name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet, headingStyle); err != nil {
			log.Errorf("Error writing sheet %s: %v", sheet.Name, err)
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buffer.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet Sheet, headingStyle int) error {
	widest := 1
	for i, row := range sheet.Rows {
		widest = max(widest, len(row))
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet.Name, cell, &row); err != nil {
			return err
		}
	}

	for _, rowNumber := range sheet.Headings {
		width := max(1, len(sheet.Rows[rowNumber-1]))
		from, _ := excelize.CoordinatesToCellName(1, rowNumber)
		to, _ := excelize.CoordinatesToCellName(width, rowNumber)
		if err := f.SetCellStyle(sheet.Name, from, to, headingStyle); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet.Name, "A", "A", firstColumnWidth); err != nil {
		return err
	}
	if widest > 1 {
		last, err := excelize.ColumnNumberToName(widest)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.Name, "B", last, columnWidth); err != nil {
			return err
		}
	}
	return nil
}
