package model

import "github.com/shopspring/decimal"

// Config holds the per-run tax parameters. It is read-only during processing.
type Config struct {
	TargetYear       int
	CarriedCosts     decimal.Decimal // unused cost surplus carried from prior years (art. 22 ust. 16 updof)
	ExtraStablecoins []string
}

// Result is the complete outcome of one processing run: the statutory totals,
// the five row buckets and the non-spot account labels that were skipped.
// It is produced exactly once, after every surviving row has been bucketed.
type Result struct {
	RunID string

	TotalRevenueSale  decimal.Decimal // Σ revenues
	TotalRevenueEarn  decimal.Decimal // Σ incomes
	TotalRevenue      decimal.Decimal
	TotalCostsCurrent decimal.Decimal // Σ costs
	TotalCostsCarried decimal.Decimal
	TotalCosts        decimal.Decimal
	Income            decimal.Decimal // max(0, revenue − costs)
	SurplusToCarry    decimal.Decimal // max(0, costs − revenue), deductible next year
	BasePLN           decimal.Decimal // taxable base, whole PLN
	TaxPLN            decimal.Decimal // 19% flat, whole PLN

	Revenues []ProcessedRow
	Incomes  []ProcessedRow
	Costs    []ProcessedRow
	Warnings []ProcessedRow
	Ignored  []ProcessedRow

	NonSpotAccounts []string
}
