// Package matcher classifies exchange operation labels against ordered,
// data-driven pattern tables. Matching is case-insensitive and the rule-set
// precedence is an explicit list, so a label matching several tables always
// resolves to the same category.
package matcher

import (
	"fmt"
	"strings"
)

// MatchKind selects how a pattern value is compared against a label.
type MatchKind string

const (
	MatchExact    MatchKind = "exact"
	MatchPrefix   MatchKind = "prefix"
	MatchSuffix   MatchKind = "suffix"
	MatchContains MatchKind = "contains"
)

// Pattern is one entry of an ordered rule table.
type Pattern struct {
	Kind  MatchKind
	Value string
}

// RuleSet identifies one of the classification rule tables.
type RuleSet string

const (
	RuleTrade     RuleSet = "trade"
	RuleFee       RuleSet = "fee"
	RuleIncome    RuleSet = "taxable_income"
	RuleDust      RuleSet = "dust"
	RuleTechnical RuleSet = "technical"
	RuleUnknown   RuleSet = "unknown"
)

// precedence is the contract order: a label matching both a trade pattern and
// any later table resolves as trade.
var precedence = []RuleSet{RuleTrade, RuleFee, RuleIncome, RuleDust, RuleTechnical}

var tables = map[RuleSet][]Pattern{
	RuleTrade:     TradePatterns,
	RuleFee:       FeePatterns,
	RuleIncome:    TaxableIncomePatterns,
	RuleDust:      DustPatterns,
	RuleTechnical: TechnicalPatterns,
}

// Matches reports whether the operation label matches a single pattern.
func Matches(label string, p Pattern) bool {
	op := strings.ToLower(label)
	val := strings.ToLower(p.Value)
	switch p.Kind {
	case MatchExact:
		return op == val
	case MatchPrefix:
		return strings.HasPrefix(op, val)
	case MatchSuffix:
		return strings.HasSuffix(op, val)
	case MatchContains:
		return strings.Contains(op, val)
	}
	return false
}

// MatchesAny reports whether any pattern of the ordered list matches.
func MatchesAny(label string, patterns []Pattern) bool {
	for _, p := range patterns {
		if Matches(label, p) {
			return true
		}
	}
	return false
}

// WhichPattern returns a kind:"value" description of the first matching
// pattern, or "" when none matches. Used to annotate rows for operator triage.
func WhichPattern(label string, patterns []Pattern) string {
	for _, p := range patterns {
		if Matches(label, p) {
			return fmt.Sprintf("%s:%q", p.Kind, p.Value)
		}
	}
	return ""
}

// Classify returns the first rule set, in precedence order, whose table
// matches the label, or RuleUnknown.
func Classify(label string) RuleSet {
	for _, rs := range precedence {
		if MatchesAny(label, tables[rs]) {
			return rs
		}
	}
	return RuleUnknown
}

// IsFiat reports whether the symbol is a fiat currency settled directly
// against NBP reference rates.
func IsFiat(symbol string) bool {
	return fiatCurrencies[strings.ToUpper(symbol)]
}

// IsStablecoin reports whether the symbol is treated as pegged 1:1 to USD,
// considering both the built-in set and user-configured extras.
func IsStablecoin(symbol string, extra map[string]bool) bool {
	up := strings.ToUpper(symbol)
	return defaultStablecoins[up] || extra[up]
}

// StablecoinSet builds the extra-stablecoin lookup from configured symbols.
func StablecoinSet(symbols []string) map[string]bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			set[s] = true
		}
	}
	return set
}
