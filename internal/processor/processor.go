// Package processor turns raw ledger rows into a PIT-38 result: it filters
// the target year and spot account, classifies every row against the pattern
// tables, values it through the rate and price resolvers, and buckets it.
// Every surviving row ends up in exactly one bucket; a row that cannot be
// classified or valued becomes a warning, never a silent drop.
package processor

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/modek4/crypto-tax/internal/ledger"
	"github.com/modek4/crypto-tax/internal/matcher"
	"github.com/modek4/crypto-tax/internal/model"
)

// RateSource resolves a PLN rate for a fiat currency and transaction time.
type RateSource interface {
	GetRate(currency string, txTime time.Time) (float64, error)
}

// PriceSource resolves a USD unit price for a crypto asset at a given hour.
type PriceSource interface {
	USDPrice(symbol string, ts time.Time) (float64, bool)
}

// ProgressFunc is called after every processed row.
type ProgressFunc func(current, total int, msg string)

// Processor runs the classification and valuation pipeline.
type Processor struct {
	Rates  RateSource
	Prices PriceSource
}

func New(rates RateSource, prices PriceSource) *Processor {
	return &Processor{Rates: rates, Prices: prices}
}

type workRow struct {
	raw model.RawRow
	ts  time.Time
}

// Run processes the ledger for one tax year and returns the aggregated
// result. Per-row failures degrade to warning rows; Run itself only returns
// a fully populated result.
func (p *Processor) Run(rows []model.RawRow, cfg model.Config, onProgress ProgressFunc) *model.Result {
	if onProgress == nil {
		onProgress = func(int, int, string) {}
	}
	extraStable := matcher.StablecoinSet(cfg.ExtraStablecoins)

	// Non-spot detection looks at every row, including rows whose date does
	// not parse; only the working set needs a valid date.
	seen := make(map[string]bool)
	var nonSpot []string
	var work []workRow
	for _, r := range rows {
		account := strings.TrimSpace(r.Account)
		if account != "" && !strings.EqualFold(account, "spot") && !seen[account] {
			seen[account] = true
			nonSpot = append(nonSpot, account)
		}
		ts, err := ledger.ParseDate(r.UTCTime)
		if err != nil {
			continue
		}
		if ts.UTC().Year() != cfg.TargetYear || !strings.EqualFold(account, "spot") {
			continue
		}
		work = append(work, workRow{raw: r, ts: ts})
	}
	sort.SliceStable(work, func(i, j int) bool { return work[i].ts.Before(work[j].ts) })

	res := &model.Result{RunID: uuid.NewString(), NonSpotAccounts: nonSpot}

	total := len(work)
	for i, w := range work {
		onProgress(i+1, total, fmt.Sprintf("%s — %s", w.raw.Operation, w.raw.Coin))
		if i%10 == 0 {
			// let a host UI breathe during long runs
			runtime.Gosched()
		}
		p.processRow(w, cfg, extraStable, res)
	}

	Aggregate(res, cfg)
	return res
}

// processRow classifies and values one row. A panic inside a branch is
// recovered into a warning so a single bad row cannot abort the run.
func (p *Processor) processRow(w workRow, cfg model.Config, extraStable map[string]bool, res *model.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WARN] row recovered: %v", r)
			res.Warnings = append(res.Warnings,
				makeWarning(w.raw, fmt.Sprintf("unexpected error: %v", r)))
		}
	}()

	change, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(w.raw.Change), ",", "."))
	if err != nil {
		res.Warnings = append(res.Warnings,
			makeWarning(w.raw, fmt.Sprintf("row parse error: invalid Change %q", w.raw.Change)))
		return
	}

	coin := strings.ToUpper(strings.TrimSpace(w.raw.Coin))
	op := strings.TrimSpace(w.raw.Operation)
	amount := change.Abs()
	inflow := change.Sign() > 0
	outflow := change.Sign() < 0
	fiat := matcher.IsFiat(coin)
	stable := matcher.IsStablecoin(coin, extraStable)

	base := model.ProcessedRow{
		OperationDate: w.ts.UTC().Format("2006-01-02 15:04:05"),
		OperationName: op,
		CoinName:      coin,
		CoinAmount:    change,
		Account:       w.raw.Account,
	}
	dateOnly := base.OperationDate[:10]

	switch {
	case matcher.MatchesAny(op, matcher.TradePatterns):
		matchedBy := matcher.WhichPattern(op, matcher.TradePatterns)
		switch {
		case fiat && outflow:
			// spending fiat = acquiring crypto
			rate, err := p.Rates.GetRate(coin, w.ts)
			if err != nil {
				res.Warnings = append(res.Warnings, makeWarning(w.raw, rateHint(coin, dateOnly, err)))
				return
			}
			row := base
			row.PricePLN = plnValue(amount, rate)
			row.RateNBP = rate
			row.Category = model.CategoryCost
			row.ExtendedLabel = "ACQUISITION COST — " + op
			row.LegalBasis = "art. 22 ust. 14 updof"
			row.WarningText = "Matched pattern: " + matchedBy
			res.Costs = append(res.Costs, row)
		case fiat && inflow:
			// receiving fiat = disposing of crypto
			rate, err := p.Rates.GetRate(coin, w.ts)
			if err != nil {
				res.Warnings = append(res.Warnings, makeWarning(w.raw, rateHint(coin, dateOnly, err)))
				return
			}
			row := base
			row.PricePLN = plnValue(amount, rate)
			row.RateNBP = rate
			row.Category = model.CategoryRevenue
			row.ExtendedLabel = "SALE REVENUE — " + op
			row.LegalBasis = "art. 17 ust. 1f updof"
			row.WarningText = "Matched pattern: " + matchedBy
			res.Revenues = append(res.Revenues, row)
		case !fiat:
			row := base
			row.Category = model.CategoryIgnored
			if stable {
				row.ExtendedLabel = "Crypto→stablecoin swap (tax-neutral, KIS position 2024/2025)"
			} else {
				row.ExtendedLabel = "Crypto→crypto swap (tax-neutral, art. 17 ust. 1f updof)"
			}
			res.Ignored = append(res.Ignored, row)
		default:
			// zero-amount fiat leg, nothing to value
			row := base
			row.Category = model.CategoryIgnored
			row.ExtendedLabel = "Zero-amount trade line"
			res.Ignored = append(res.Ignored, row)
		}

	case matcher.MatchesAny(op, matcher.FeePatterns):
		if fiat {
			rate, err := p.Rates.GetRate(coin, w.ts)
			if err != nil {
				res.Warnings = append(res.Warnings, makeWarning(w.raw, rateHint(coin, dateOnly, err)))
				return
			}
			row := base
			row.PricePLN = plnValue(amount, rate)
			row.RateNBP = rate
			row.Category = model.CategoryCost
			row.ExtendedLabel = fmt.Sprintf("FEE (%s)", coin)
			row.LegalBasis = "art. 22 ust. 14 updof"
			res.Costs = append(res.Costs, row)
			return
		}
		usd, ok := p.Prices.USDPrice(coin, w.ts)
		if !ok {
			res.Warnings = append(res.Warnings, makeWarning(w.raw, fmt.Sprintf(
				"fee in %s could not be priced; look up the %s price for %s manually and add it to costs",
				coin, coin, dateOnly)))
			return
		}
		rate, err := p.Rates.GetRate("USD", w.ts)
		if err != nil {
			res.Warnings = append(res.Warnings, makeWarning(w.raw, rateHint("USD", dateOnly, err)))
			return
		}
		row := base
		row.PricePLN = plnValue(amount.Mul(decimal.NewFromFloat(usd)), rate)
		row.RateNBP = rate
		row.PriceUSD = usd
		row.Category = model.CategoryCost
		row.ExtendedLabel = fmt.Sprintf("CRYPTO FEE (%s→USD→PLN)", coin)
		row.LegalBasis = "art. 22 ust. 14 updof"
		res.Costs = append(res.Costs, row)

	case matcher.MatchesAny(op, matcher.TaxableIncomePatterns) && inflow:
		matchedBy := matcher.WhichPattern(op, matcher.TaxableIncomePatterns)
		// altcoins rarely have a direct NBP quote, so income is valued
		// through USD
		usd, ok := p.Prices.USDPrice(coin, w.ts)
		if !ok {
			res.Warnings = append(res.Warnings, makeWarning(w.raw, fmt.Sprintf(
				"income %q in %s could not be priced automatically; look up the %s price for %s manually and add it to revenue (matched pattern: %s)",
				op, coin, coin, dateOnly, matchedBy)))
			return
		}
		rate, err := p.Rates.GetRate("USD", w.ts)
		if err != nil {
			res.Warnings = append(res.Warnings, makeWarning(w.raw, rateHint("USD", dateOnly, err)))
			return
		}
		row := base
		row.PricePLN = plnValue(amount.Mul(decimal.NewFromFloat(usd)), rate)
		row.RateNBP = rate
		row.PriceUSD = usd
		row.Category = model.CategoryIncome
		row.ExtendedLabel = "EARN/STAKING INCOME — " + op
		row.LegalBasis = "art. 17 ust. 1f updof — market value at receipt"
		row.WarningText = fmt.Sprintf(
			"Matched pattern: %s. This PLN amount is also the acquisition cost at a later disposal.", matchedBy)
		res.Incomes = append(res.Incomes, row)

	case matcher.MatchesAny(op, matcher.DustPatterns):
		row := base
		row.Category = model.CategoryIgnored
		row.ExtendedLabel = "Dust conversion → BNB (crypto→crypto, neutral)"
		row.Reason = "Needs manual correction if the dust was converted to fiat."
		res.Ignored = append(res.Ignored, row)

	case matcher.MatchesAny(op, matcher.TechnicalPatterns):
		matchedBy := matcher.WhichPattern(op, matcher.TechnicalPatterns)
		row := base
		row.Category = model.CategoryIgnored
		lower := strings.ToLower(op)
		switch {
		case fiat && strings.Contains(lower, "deposit"):
			row.ExtendedLabel = "Deposit of own fiat funds"
		case fiat && strings.Contains(lower, "withdraw"):
			row.ExtendedLabel = "Fiat withdrawal to bank account"
		default:
			row.ExtendedLabel = fmt.Sprintf("Technical operation (%s)", op)
		}
		row.Reason = "Matched pattern: " + matchedBy
		res.Ignored = append(res.Ignored, row)

	default:
		res.Warnings = append(res.Warnings, makeWarning(w.raw, fmt.Sprintf(
			"unknown operation %q for %s (classification: %s); check manually whether it is revenue, cost or neutral — known labels belong in the matcher rule tables",
			op, coin, matcher.Classify(op))))
	}
}

// plnValue converts an amount via an NBP rate, keeping 6 decimal places so
// rounding error does not compound over many small rows.
func plnValue(amount decimal.Decimal, rate float64) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(rate)).Round(6)
}

func rateHint(currency, date string, err error) string {
	return fmt.Sprintf("no NBP rate for %s near %s (%v); look up the table A rate manually", currency, date, err)
}

func makeWarning(raw model.RawRow, msg string) model.ProcessedRow {
	return model.ProcessedRow{
		OperationDate: raw.UTCTime,
		OperationName: raw.Operation,
		CoinName:      strings.ToUpper(raw.Coin),
		CoinAmount:    decimal.Zero,
		Account:       raw.Account,
		PricePLN:      decimal.Zero,
		Category:      model.CategoryWarning,
		ExtendedLabel: "MANUAL REVIEW",
		Reason:        msg,
	}
}
