package processor

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/modek4/crypto-tax/internal/model"
)

func plnRow(cat model.Category, pln string) model.ProcessedRow {
	return model.ProcessedRow{Category: cat, PricePLN: decimal.RequireFromString(pln)}
}

func TestAggregate_StatutoryRounding(t *testing.T) {
	res := &model.Result{
		Revenues: []model.ProcessedRow{plnRow(model.CategoryRevenue, "10000.70")},
		Costs:    []model.ProcessedRow{plnRow(model.CategoryCost, "3000.20")},
	}
	Aggregate(res, model.Config{TargetYear: 2025})

	// 10000.70 - 3000.20 = 7000.50, rounded half up to whole PLN
	if !res.Income.Equal(decimal.RequireFromString("7000.50")) {
		t.Errorf("income = %s, want 7000.50", res.Income)
	}
	if !res.BasePLN.Equal(decimal.NewFromInt(7001)) {
		t.Errorf("base = %s, want 7001", res.BasePLN)
	}
	// 7001 * 0.19 = 1330.19, rounded to whole PLN
	if !res.TaxPLN.Equal(decimal.NewFromInt(1330)) {
		t.Errorf("tax = %s, want 1330", res.TaxPLN)
	}
	if !res.SurplusToCarry.IsZero() {
		t.Errorf("surplus = %s, want 0", res.SurplusToCarry)
	}
}

func TestAggregate_EarnIncomeCountsAsRevenue(t *testing.T) {
	res := &model.Result{
		Revenues: []model.ProcessedRow{plnRow(model.CategoryRevenue, "1000")},
		Incomes:  []model.ProcessedRow{plnRow(model.CategoryIncome, "250")},
	}
	Aggregate(res, model.Config{TargetYear: 2025})

	if !res.TotalRevenueSale.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("sale revenue = %s, want 1000", res.TotalRevenueSale)
	}
	if !res.TotalRevenueEarn.Equal(decimal.NewFromInt(250)) {
		t.Errorf("earn revenue = %s, want 250", res.TotalRevenueEarn)
	}
	if !res.TotalRevenue.Equal(decimal.NewFromInt(1250)) {
		t.Errorf("total revenue = %s, want 1250", res.TotalRevenue)
	}
}

func TestAggregate_CostsExceedRevenue(t *testing.T) {
	res := &model.Result{
		Revenues: []model.ProcessedRow{plnRow(model.CategoryRevenue, "500")},
		Costs:    []model.ProcessedRow{plnRow(model.CategoryCost, "800")},
	}
	Aggregate(res, model.Config{TargetYear: 2025})

	if !res.Income.IsZero() {
		t.Errorf("income = %s, want 0", res.Income)
	}
	if !res.SurplusToCarry.Equal(decimal.NewFromInt(300)) {
		t.Errorf("surplus to carry = %s, want 300", res.SurplusToCarry)
	}
	if !res.TaxPLN.IsZero() {
		t.Errorf("tax = %s, want 0", res.TaxPLN)
	}
}

func TestAggregate_CarriedCostsWithoutTransactions(t *testing.T) {
	res := &model.Result{}
	Aggregate(res, model.Config{TargetYear: 2025, CarriedCosts: decimal.NewFromInt(500)})

	if !res.TotalCosts.Equal(decimal.NewFromInt(500)) {
		t.Errorf("total costs = %s, want 500", res.TotalCosts)
	}
	if !res.SurplusToCarry.Equal(decimal.NewFromInt(500)) {
		t.Errorf("surplus to carry = %s, want 500", res.SurplusToCarry)
	}
	if !res.TaxPLN.IsZero() {
		t.Errorf("tax = %s, want 0", res.TaxPLN)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	res := &model.Result{
		Revenues: []model.ProcessedRow{plnRow(model.CategoryRevenue, "10000.70")},
		Costs:    []model.ProcessedRow{plnRow(model.CategoryCost, "3000.20")},
	}
	cfg := model.Config{TargetYear: 2025, CarriedCosts: decimal.NewFromInt(100)}
	Aggregate(res, cfg)
	base, tax := res.BasePLN, res.TaxPLN

	Aggregate(res, cfg)
	if !res.BasePLN.Equal(base) || !res.TaxPLN.Equal(tax) {
		t.Errorf("second aggregation changed totals: base %s vs %s, tax %s vs %s",
			base, res.BasePLN, tax, res.TaxPLN)
	}
}
