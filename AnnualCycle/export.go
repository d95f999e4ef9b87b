package AnnualCycle

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{"Month", "Title", "Category", "Status", "Completed at"}

// ExportXLSX writes the overview as a workbook with one sheet per tertial.
func (t *Tracker) ExportXLSX(ctx context.Context, year int, target CompletionTarget) ([]byte, error) {
	groups, err := t.Overview(ctx, year, target)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, g := range groups {
		sheet := sheetName(g.Tertial)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, errors.Wrap(err, "rename sheet")
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, errors.Wrapf(err, "create sheet %s", sheet)
		}

		if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
			return nil, errors.Wrap(err, "write header")
		}
		for r, entry := range g.Items {
			month := ""
			if entry.Item.Month != nil {
				month = fmt.Sprint(*entry.Item.Month)
			}
			status, completedAt := "", ""
			if entry.Completion != nil {
				status = entry.Completion.Status
				completedAt = entry.Completion.CompletedAt.Format("2006-01-02")
			}
			row := []interface{}{month, entry.Item.Title, entry.Item.Category, status, completedAt}
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return nil, errors.Wrapf(err, "write row %d", r+2)
			}
		}
		summary, _ := excelize.CoordinatesToCellName(1, len(g.Items)+3)
		if err := f.SetCellValue(sheet, summary, fmt.Sprintf("%d of %d completed", g.Completed, g.Total)); err != nil {
			return nil, errors.Wrap(err, "write summary")
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func sheetName(tertial int) string {
	if tertial == 0 {
		return "No month"
	}
	return fmt.Sprintf("Tertial %d", tertial)
}
