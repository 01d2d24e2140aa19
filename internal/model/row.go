package model

import "github.com/shopspring/decimal"

// Category is the terminal classification of a processed ledger row.
type Category string

const (
	CategoryRevenue Category = "revenue" // proceeds from crypto→fiat disposal (PIT-38 field 34)
	CategoryIncome  Category = "income"  // earn/staking/airdrop income (PIT-38 field 34)
	CategoryCost    Category = "cost"    // acquisition cost or fee (PIT-38 field 35)
	CategoryWarning Category = "warning" // needs manual review
	CategoryIgnored Category = "ignored" // tax-neutral
)

// RawRow is a single ledger line exactly as read from the exchange statement.
// Change keeps the source string because the decimal separator varies by
// export locale; the processor normalizes it.
type RawRow struct {
	UTCTime   string
	Operation string
	Coin      string
	Change    string
	Account   string
	Remark    string
}

// ProcessedRow is the classified and valued form of one RawRow. It is created
// once, never mutated afterwards, and owned by exactly one result bucket.
type ProcessedRow struct {
	OperationDate string
	OperationName string
	CoinName      string
	CoinAmount    decimal.Decimal
	Account       string
	PricePLN      decimal.Decimal
	RateNBP       float64 // NBP mid rate used for PLN conversion, 0 when not used
	PriceUSD      float64 // USD unit price from the kline source, 0 when not used
	Category      Category
	ExtendedLabel string
	LegalBasis    string
	WarningText   string
	Reason        string
}
