// Package report renders a processing result into an xlsx workbook: one
// summary sheet with the statutory totals plus one sheet per bucket. It needs
// nothing beyond the Result itself.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/modek4/crypto-tax/internal/model"
)

var bucketColumns = []struct {
	header string
	width  float64
}{
	{"Date", 20},
	{"Operation", 28},
	{"Coin", 10},
	{"Amount", 18},
	{"PLN", 16},
	{"NBP rate", 12},
	{"USD price", 14},
	{"Type", 40},
	{"Legal basis", 30},
	{"Note", 48},
}

// Write saves the workbook to path.
func Write(res *model.Result, cfg model.Config, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 10},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"3B1E5F"}},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}
	if err := writeSummary(f, res, cfg, headerStyle); err != nil {
		return err
	}

	buckets := []struct {
		name string
		rows []model.ProcessedRow
	}{
		{"Revenue", res.Revenues},
		{"Income", res.Incomes},
		{"Costs", res.Costs},
		{"Warnings", res.Warnings},
		{"Ignored", res.Ignored},
	}
	for _, b := range buckets {
		if err := writeBucket(f, b.name, b.rows, headerStyle); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, res *model.Result, cfg model.Config, headerStyle int) error {
	const sheet = "Summary"
	lines := []struct {
		label string
		value any
	}{
		{"Tax year", cfg.TargetYear},
		{"Generated", time.Now().UTC().Format("2006-01-02 15:04:05")},
		{"Run ID", res.RunID},
		{"", nil},
		{"Revenue from sales", res.TotalRevenueSale.InexactFloat64()},
		{"Revenue from earn/staking", res.TotalRevenueEarn.InexactFloat64()},
		{"Total revenue (field 34)", res.TotalRevenue.InexactFloat64()},
		{"Costs, current year", res.TotalCostsCurrent.InexactFloat64()},
		{"Costs carried from prior years", res.TotalCostsCarried.InexactFloat64()},
		{"Total costs (field 35)", res.TotalCosts.InexactFloat64()},
		{"Net income", res.Income.InexactFloat64()},
		{"Cost surplus to carry forward", res.SurplusToCarry.InexactFloat64()},
		{"Taxable base (whole PLN)", res.BasePLN.InexactFloat64()},
		{"Tax due, 19%", res.TaxPLN.InexactFloat64()},
		{"", nil},
		{"Rows needing manual review", len(res.Warnings)},
		{"Non-spot accounts (not processed)", strings.Join(res.NonSpotAccounts, ", ")},
	}

	f.SetCellValue(sheet, "A1", "Item")
	f.SetCellValue(sheet, "B1", "Value")
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("summary header: %w", err)
	}
	for i, ln := range lines {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), ln.label)
		if ln.value != nil {
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), ln.value)
		}
	}
	f.SetColWidth(sheet, "A", "A", 34)
	f.SetColWidth(sheet, "B", "B", 42)
	return nil
}

func writeBucket(f *excelize.File, name string, rows []model.ProcessedRow, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("new sheet %s: %w", name, err)
	}
	for i, col := range bucketColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(name, cell, col.header)
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(name, colName, colName, col.width)
	}
	if err := f.SetRowStyle(name, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", name, err)
	}

	for i, r := range rows {
		row := i + 2
		values := []any{
			r.OperationDate,
			r.OperationName,
			r.CoinName,
			r.CoinAmount.InexactFloat64(),
			r.PricePLN.InexactFloat64(),
			nonZero(r.RateNBP),
			nonZero(r.PriceUSD),
			r.ExtendedLabel,
			r.LegalBasis,
			note(r),
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			f.SetCellValue(name, cell, v)
		}
	}

	if err := f.AutoFilter(name, "A1:J1", nil); err != nil {
		return fmt.Errorf("autofilter %s: %w", name, err)
	}
	return f.SetPanes(name, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	})
}

func nonZero(v float64) any {
	if v == 0 {
		return nil
	}
	return v
}

func note(r model.ProcessedRow) string {
	if r.WarningText != "" {
		return r.WarningText
	}
	return r.Reason
}
