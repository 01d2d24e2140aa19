package processor

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/modek4/crypto-tax/internal/model"
)

// fakeRates returns a fixed PLN rate per currency and records lookups.
type fakeRates struct {
	rates map[string]float64
	calls []string
}

func (f *fakeRates) GetRate(currency string, txTime time.Time) (float64, error) {
	f.calls = append(f.calls, currency)
	if r, ok := f.rates[strings.ToUpper(currency)]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("rate for %s not available", currency)
}

// fakePrices returns a fixed USD price per symbol.
type fakePrices struct {
	prices map[string]float64
}

func (f *fakePrices) USDPrice(symbol string, ts time.Time) (float64, bool) {
	p, ok := f.prices[strings.ToUpper(symbol)]
	return p, ok
}

func newTestProcessor() (*Processor, *fakeRates, *fakePrices) {
	rates := &fakeRates{rates: map[string]float64{"PLN": 1.0, "USD": 4.0, "EUR": 4.3}}
	prices := &fakePrices{prices: map[string]float64{"BTC": 60000, "ETH": 2500, "BNB": 500}}
	return New(rates, prices), rates, prices
}

func row(utcTime, op, coin, change string) model.RawRow {
	return model.RawRow{UTCTime: utcTime, Operation: op, Coin: coin, Change: change, Account: "Spot"}
}

var cfg2025 = model.Config{TargetYear: 2025}

func bucketCount(res *model.Result) int {
	return len(res.Revenues) + len(res.Incomes) + len(res.Costs) + len(res.Warnings) + len(res.Ignored)
}

func TestRun_EveryRowLandsInExactlyOneBucket(t *testing.T) {
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-01-10 10:00:00", "Buy", "PLN", "-1000"),
		row("2025-01-10 10:00:00", "Buy", "BTC", "0.005"),
		row("2025-02-01 09:00:00", "Sell", "PLN", "1200"),
		row("2025-02-01 09:00:00", "Fee", "BNB", "-0.01"),
		row("2025-03-05 00:00:00", "Staking Rewards", "ETH", "0.2"),
		row("2025-03-06 00:00:00", "Small Assets Exchange BNB", "DOGE", "-11"),
		row("2025-03-07 00:00:00", "Deposit", "PLN", "5000"),
		row("2025-03-08 00:00:00", "Mystery Operation", "XYZ", "1"),
		row("2025-03-09 00:00:00", "Buy", "BTC", "not-a-number"),
	}

	res := p.Run(rows, cfg2025, nil)
	if got := bucketCount(res); got != len(rows) {
		t.Errorf("bucketed %d rows, want %d: revenues=%d incomes=%d costs=%d warnings=%d ignored=%d",
			got, len(rows), len(res.Revenues), len(res.Incomes), len(res.Costs), len(res.Warnings), len(res.Ignored))
	}
	if res.RunID == "" {
		t.Error("result has no run ID")
	}
}

func TestRun_BuyPair(t *testing.T) {
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-01-10 10:00:00", "Buy", "PLN", "-1000"),
		row("2025-01-10 10:00:00", "Buy", "BTC", "0.005"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Costs) != 1 || len(res.Ignored) != 1 {
		t.Fatalf("want 1 cost + 1 ignored, got costs=%d ignored=%d", len(res.Costs), len(res.Ignored))
	}
	c := res.Costs[0]
	if !c.PricePLN.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("cost PLN = %s, want 1000", c.PricePLN)
	}
	if c.LegalBasis != "art. 22 ust. 14 updof" {
		t.Errorf("cost legal basis = %q", c.LegalBasis)
	}
	if !strings.HasPrefix(c.ExtendedLabel, "ACQUISITION COST") {
		t.Errorf("cost label = %q", c.ExtendedLabel)
	}
	if !strings.Contains(res.Ignored[0].ExtendedLabel, "swap") {
		t.Errorf("crypto leg label = %q", res.Ignored[0].ExtendedLabel)
	}
}

func TestRun_SellToEURUsesThatCurrencyRate(t *testing.T) {
	p, rates, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-04-01 12:00:00", "Sell", "EUR", "100"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Revenues) != 1 {
		t.Fatalf("want 1 revenue, got %d", len(res.Revenues))
	}
	r := res.Revenues[0]
	if !r.PricePLN.Equal(decimal.NewFromInt(430)) {
		t.Errorf("revenue PLN = %s, want 430", r.PricePLN)
	}
	if r.RateNBP != 4.3 {
		t.Errorf("rate = %v, want 4.3", r.RateNBP)
	}
	if r.LegalBasis != "art. 17 ust. 1f updof" {
		t.Errorf("legal basis = %q", r.LegalBasis)
	}
	if len(rates.calls) != 1 || rates.calls[0] != "EUR" {
		t.Errorf("rate lookups = %v, want [EUR]", rates.calls)
	}
}

func TestRun_TradePrecedenceOverFee(t *testing.T) {
	// "OTC Fee" contains both a trade pattern (OTC) and a fee suffix; the
	// trade table wins.
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-05-01 00:00:00", "OTC Fee", "BTC", "-0.001"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Ignored) != 1 {
		t.Fatalf("want OTC Fee on crypto bucketed as neutral trade leg, got ignored=%d warnings=%d costs=%d",
			len(res.Ignored), len(res.Warnings), len(res.Costs))
	}
}

func TestRun_CryptoFeeValuedThroughUSD(t *testing.T) {
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-05-01 00:00:00", "Transaction Fee", "BNB", "-0.02"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Costs) != 1 {
		t.Fatalf("want 1 cost, got %d (warnings=%d)", len(res.Costs), len(res.Warnings))
	}
	c := res.Costs[0]
	// 0.02 BNB * 500 USD * 4.0 PLN = 40 PLN
	if !c.PricePLN.Equal(decimal.NewFromInt(40)) {
		t.Errorf("fee PLN = %s, want 40", c.PricePLN)
	}
	if c.PriceUSD != 500 {
		t.Errorf("fee USD price = %v, want 500", c.PriceUSD)
	}
	if !strings.Contains(c.ExtendedLabel, "BNB") {
		t.Errorf("fee label = %q", c.ExtendedLabel)
	}
}

func TestRun_UnpricedCryptoFeeBecomesWarning(t *testing.T) {
	p, _, prices := newTestProcessor()
	delete(prices.prices, "BNB")
	rows := []model.RawRow{
		row("2025-05-01 00:00:00", "Transaction Fee", "BNB", "-0.02"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Warnings) != 1 || len(res.Costs) != 0 {
		t.Fatalf("want 1 warning, got warnings=%d costs=%d", len(res.Warnings), len(res.Costs))
	}
	w := res.Warnings[0]
	if w.ExtendedLabel != "MANUAL REVIEW" {
		t.Errorf("warning label = %q", w.ExtendedLabel)
	}
	if !strings.Contains(w.Reason, "BNB") || !strings.Contains(w.Reason, "2025-05-01") {
		t.Errorf("warning reason should name the coin and date: %q", w.Reason)
	}
}

func TestRun_StakingIncomeValuation(t *testing.T) {
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-06-15 08:00:00", "Staking Rewards", "ETH", "0.4"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Incomes) != 1 {
		t.Fatalf("want 1 income, got %d (warnings=%d)", len(res.Incomes), len(res.Warnings))
	}
	in := res.Incomes[0]
	// 0.4 ETH * 2500 USD * 4.0 PLN = 4000 PLN
	if !in.PricePLN.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("income PLN = %s, want 4000", in.PricePLN)
	}
	if !strings.Contains(in.WarningText, "acquisition cost") {
		t.Errorf("income note should mention later cost basis: %q", in.WarningText)
	}
}

func TestRun_IncomePatternOutflowFallsToWarning(t *testing.T) {
	// An income-labeled outflow is suspicious and must not be booked as
	// income.
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-06-15 08:00:00", "Distribution", "ETH", "-0.4"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Incomes) != 0 || len(res.Warnings) != 1 {
		t.Fatalf("want 1 warning, got incomes=%d warnings=%d", len(res.Incomes), len(res.Warnings))
	}
}

func TestRun_UnknownOperationWarning(t *testing.T) {
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-07-01 00:00:00", "Whatever Bonus 2.0", "ABC", "-5"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Warnings) != 1 {
		t.Fatalf("want 1 warning, got %d", len(res.Warnings))
	}
	if !strings.Contains(res.Warnings[0].Reason, "Whatever Bonus 2.0") {
		t.Errorf("warning should quote the operation: %q", res.Warnings[0].Reason)
	}
}

func TestRun_FiatDepositAndWithdrawalLabels(t *testing.T) {
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-01-02 00:00:00", "Deposit", "PLN", "5000"),
		row("2025-12-20 00:00:00", "Withdraw", "PLN", "-2000"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Ignored) != 2 {
		t.Fatalf("want 2 ignored, got %d", len(res.Ignored))
	}
	if res.Ignored[0].ExtendedLabel != "Deposit of own fiat funds" {
		t.Errorf("deposit label = %q", res.Ignored[0].ExtendedLabel)
	}
	if res.Ignored[1].ExtendedLabel != "Fiat withdrawal to bank account" {
		t.Errorf("withdrawal label = %q", res.Ignored[1].ExtendedLabel)
	}
}

func TestRun_FiltersYearAndAccount(t *testing.T) {
	p, _, _ := newTestProcessor()
	earn := model.RawRow{UTCTime: "2025-03-01 00:00:00", Operation: "Simple Earn Flexible Interest", Coin: "BTC", Change: "0.001", Account: "Earn"}
	funding := model.RawRow{UTCTime: "2025-03-02 00:00:00", Operation: "Buy", Coin: "PLN", Change: "-100", Account: "Funding"}
	badDate := model.RawRow{UTCTime: "garbage", Operation: "Buy", Coin: "PLN", Change: "-100", Account: "Margin"}
	rows := []model.RawRow{
		row("2024-12-31 23:59:59", "Sell", "PLN", "100"),
		row("2025-06-01 00:00:00", "Sell", "PLN", "100"),
		row("2026-01-01 00:00:00", "Sell", "PLN", "100"),
		earn, funding, badDate,
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Revenues) != 1 {
		t.Errorf("want only the in-year spot sale, got %d revenues", len(res.Revenues))
	}
	want := []string{"Earn", "Funding", "Margin"}
	if len(res.NonSpotAccounts) != len(want) {
		t.Fatalf("non-spot accounts = %v, want %v", res.NonSpotAccounts, want)
	}
	for i, acc := range res.NonSpotAccounts {
		if acc != want[i] {
			t.Errorf("non-spot account %d = %q, want %q", i, acc, want[i])
		}
	}
}

func TestRun_SpotAccountMatchIsCaseInsensitive(t *testing.T) {
	p, _, _ := newTestProcessor()
	r := row("2025-06-01 00:00:00", "Sell", "PLN", "100")
	r.Account = "  SPOT "

	res := p.Run([]model.RawRow{r}, cfg2025, nil)
	if len(res.Revenues) != 1 {
		t.Errorf("trimmed case-insensitive spot account should pass the filter, got %d revenues", len(res.Revenues))
	}
	if len(res.NonSpotAccounts) != 0 {
		t.Errorf("spot account must not be reported as non-spot: %v", res.NonSpotAccounts)
	}
}

func TestRun_RowsProcessedInTimeOrder(t *testing.T) {
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-09-01 00:00:00", "Sell", "PLN", "300"),
		row("2025-01-01 00:00:00", "Sell", "PLN", "100"),
		row("2025-05-01 00:00:00", "Sell", "PLN", "200"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Revenues) != 3 {
		t.Fatalf("want 3 revenues, got %d", len(res.Revenues))
	}
	for i, want := range []string{"2025-01-01", "2025-05-01", "2025-09-01"} {
		if got := res.Revenues[i].OperationDate[:10]; got != want {
			t.Errorf("revenue %d date = %s, want %s", i, got, want)
		}
	}
}

func TestRun_CommaDecimalSeparator(t *testing.T) {
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-06-01 00:00:00", "Sell", "PLN", "123,45"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Revenues) != 1 {
		t.Fatalf("want 1 revenue, got %d (warnings=%d)", len(res.Revenues), len(res.Warnings))
	}
	if !res.Revenues[0].PricePLN.Equal(decimal.RequireFromString("123.45")) {
		t.Errorf("revenue PLN = %s, want 123.45", res.Revenues[0].PricePLN)
	}
}

func TestRun_ProgressReportedForEveryRow(t *testing.T) {
	p, _, _ := newTestProcessor()
	rows := []model.RawRow{
		row("2025-01-01 00:00:00", "Sell", "PLN", "100"),
		row("2025-01-02 00:00:00", "Sell", "PLN", "100"),
		row("2025-01-03 00:00:00", "Sell", "PLN", "100"),
	}

	var current []int
	total := -1
	p.Run(rows, cfg2025, func(cur, tot int, msg string) {
		current = append(current, cur)
		total = tot
	})
	if len(current) != 3 || current[0] != 1 || current[2] != 3 {
		t.Errorf("progress calls = %v, want [1 2 3]", current)
	}
	if total != 3 {
		t.Errorf("progress total = %d, want 3", total)
	}
}

func TestRun_MissingRateBecomesWarningNotError(t *testing.T) {
	p, rates, _ := newTestProcessor()
	delete(rates.rates, "EUR")
	rows := []model.RawRow{
		row("2025-06-01 00:00:00", "Sell", "EUR", "100"),
	}

	res := p.Run(rows, cfg2025, nil)
	if len(res.Warnings) != 1 || len(res.Revenues) != 0 {
		t.Fatalf("want 1 warning, got warnings=%d revenues=%d", len(res.Warnings), len(res.Revenues))
	}
	if !strings.Contains(res.Warnings[0].Reason, "EUR") {
		t.Errorf("warning should name the currency: %q", res.Warnings[0].Reason)
	}
}
