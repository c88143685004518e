package ledger

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/skillshare/backend/internal/models"
)

const exportSheet = "Transactions"

// WriteXLSX renders entries as a single-sheet workbook.
func WriteXLSX(w io.Writer, entries []*models.CreditTransaction) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	headers := []string{"Date", "Type", "Amount", "Message", "Reference"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}

	for idx, e := range entries {
		row := idx + 2
		ref := ""
		if e.RefID != nil {
			ref = e.RefID.String()
		}
		values := []any{e.CreatedAt.Format("2006-01-02 15:04:05"), e.Type, e.Amount, e.Message, ref}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 20)
	_ = f.SetColWidth(exportSheet, "B", "B", 10)
	_ = f.SetColWidth(exportSheet, "C", "C", 10)
	_ = f.SetColWidth(exportSheet, "D", "D", 40)
	_ = f.SetColWidth(exportSheet, "E", "E", 38)

	return f.Write(w)
}
