package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Report"

// ExportXLSX renders the matrix as a spreadsheet: one merged header cell per
// model spanning its size sub-columns, one row per client group, and a
// summary row at the bottom. Money figures are written in the main currency.
func ExportXLSX(m Matrix, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// fixed leading and trailing columns around the size pivot
	leading := []string{"Client", "Phone"}
	trailing := []string{
		"Pairs",
		"Discount (" + string(m.MainCurrency) + ")",
		"Prepayment (" + string(m.MainCurrency) + ")",
		"Total (" + string(m.MainCurrency) + ")",
		"Remaining (" + string(m.MainCurrency) + ")",
	}

	col := 1
	for _, h := range leading {
		if err := setCell(f, col, 1, h); err != nil {
			return err
		}
		if err := mergeVertical(f, col); err != nil {
			return err
		}
		col++
	}
	sizeStart := map[string]int{}
	for _, c := range m.Columns {
		start := col
		sizeStart[c.Key] = start
		label := c.SKU
		if c.Color != "" {
			label += " / " + c.Color
		}
		if err := setCell(f, start, 1, label); err != nil {
			return err
		}
		for i, size := range c.Sizes {
			header := size
			if header == "" {
				header = "qty"
			}
			if err := setCell(f, start+i, 2, header); err != nil {
				return err
			}
		}
		if len(c.Sizes) > 1 {
			from, _ := excelize.CoordinatesToCellName(start, 1)
			to, _ := excelize.CoordinatesToCellName(start+len(c.Sizes)-1, 1)
			if err := f.MergeCell(exportSheet, from, to); err != nil {
				return fmt.Errorf("merge header: %w", err)
			}
		}
		col += len(c.Sizes)
	}
	for _, h := range trailing {
		if err := setCell(f, col, 1, h); err != nil {
			return err
		}
		if err := mergeVertical(f, col); err != nil {
			return err
		}
		col++
	}

	rowIdx := 3
	for _, row := range m.Rows {
		if err := setCell(f, 1, rowIdx, row.Name); err != nil {
			return err
		}
		if err := setCell(f, 2, rowIdx, row.Phone); err != nil {
			return err
		}
		for _, c := range m.Columns {
			cell := row.Models[c.Key]
			for i, size := range c.Sizes {
				qty, ok := cell[size]
				if !ok || qty == 0 {
					continue
				}
				if err := setCell(f, sizeStart[c.Key]+i, rowIdx, qty); err != nil {
					return err
				}
			}
		}
		base := col - len(trailing)
		values := []any{
			row.Quantity,
			row.Discount.Round(2).InexactFloat64(),
			row.Prepayment.Round(2).InexactFloat64(),
			row.Total.Round(2).InexactFloat64(),
			row.Remaining.Round(2).InexactFloat64(),
		}
		for i, v := range values {
			if err := setCell(f, base+i, rowIdx, v); err != nil {
				return err
			}
		}
		rowIdx++
	}

	if err := setCell(f, 1, rowIdx, "Total"); err != nil {
		return err
	}
	base := col - 5
	totals := []any{
		m.Summary.Quantity,
		m.Summary.Discount.Round(2).InexactFloat64(),
		m.Summary.Prepayment.Round(2).InexactFloat64(),
		m.Summary.Net.Round(2).InexactFloat64(),
		m.Summary.Remaining.Round(2).InexactFloat64(),
	}
	for i, v := range totals {
		if err := setCell(f, base+i, rowIdx, v); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value any) error {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(exportSheet, name, value); err != nil {
		return fmt.Errorf("set cell %s: %w", name, err)
	}
	return nil
}

// mergeVertical joins the two header rows for columns without sub-columns.
func mergeVertical(f *excelize.File, col int) error {
	from, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(col, 2)
	if err != nil {
		return err
	}
	if err := f.MergeCell(exportSheet, from, to); err != nil {
		return fmt.Errorf("merge header: %w", err)
	}
	return nil
}
