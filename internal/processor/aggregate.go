package processor

import (
	"github.com/shopspring/decimal"

	"github.com/modek4/crypto-tax/internal/model"
)

// flat 19% rate, art. 30b ust. 1a updof
var taxRate = decimal.RequireFromString("0.19")

// Aggregate recomputes the statutory totals from the five buckets and the
// config. It is pure arithmetic over already-bucketed rows: running it twice
// over the same result yields identical totals.
func Aggregate(res *model.Result, cfg model.Config) {
	res.TotalRevenueSale = sumPLN(res.Revenues)
	res.TotalRevenueEarn = sumPLN(res.Incomes)
	res.TotalRevenue = res.TotalRevenueSale.Add(res.TotalRevenueEarn)

	res.TotalCostsCurrent = sumPLN(res.Costs)
	res.TotalCostsCarried = cfg.CarriedCosts
	res.TotalCosts = res.TotalCostsCurrent.Add(res.TotalCostsCarried)

	net := res.TotalRevenue.Sub(res.TotalCosts)
	res.Income = decimal.Max(decimal.Zero, net)
	res.SurplusToCarry = decimal.Max(decimal.Zero, net.Neg())

	// Whole-PLN rounding, half up (art. 63 § 1 Ordynacja podatkowa).
	res.BasePLN = res.Income.Round(0)
	res.TaxPLN = res.BasePLN.Mul(taxRate).Round(0)
}

func sumPLN(rows []model.ProcessedRow) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.PricePLN)
	}
	return total
}
