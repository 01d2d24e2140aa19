package matcher

// Fiat currencies settled directly against NBP table A rates. A crypto→fiat
// exchange is a taxable event; fiat symbols are never priced via klines.
var fiatCurrencies = map[string]bool{
	"PLN": true, "EUR": true, "USD": true, "GBP": true, "CHF": true,
	"BIDR": true, "BRL": true, "AUD": true, "TRY": true, "RUB": true,
	"UAH": true, "NGN": true, "ZAR": true,
	"JPY": true, "CAD": true, "HKD": true, "SGD": true, "MXN": true,
	"ARS": true, "CZK": true, "HUF": true, "SEK": true, "NOK": true,
}

// Stablecoins valued 1:1 to USD. Crypto→stablecoin swaps stay tax-neutral
// (KIS position 2024/2025).
var defaultStablecoins = map[string]bool{
	"USDT": true, "USDC": true, "FDUSD": true, "BUSD": true, "DAI": true,
	"TUSD": true, "USDP": true, "GUSD": true, "PYUSD": true,
	"USDD": true, "FRAX": true, "LUSD": true, "CRVUSD": true, "USDE": true,
	"EURC": true, "EURS": true, "EURT": true,
}

// TradePatterns cover buy/sell/convert/P2P operations (art. 17 ust. 1f updof).
var TradePatterns = []Pattern{
	{MatchExact, "Buy"},
	{MatchExact, "Sell"},
	{MatchExact, "Transaction Buy"},
	{MatchExact, "Transaction Sold"},
	{MatchExact, "Transaction Spend"},
	{MatchExact, "Transaction Revenue"},
	{MatchExact, "Transaction Related"},
	{MatchExact, "Large OTC trading"},
	{MatchExact, "P2P Trading"},
	{MatchContains, "OTC"},
	{MatchContains, "P2P"},
}

// FeePatterns cover commissions deductible as costs (art. 22 ust. 14 updof).
// The suffix rule catches non-standard fee labels.
var FeePatterns = []Pattern{
	{MatchExact, "Transaction Fee"},
	{MatchExact, "Fee"},
	{MatchExact, "Trading Fee"},
	{MatchSuffix, "Fee"},
	{MatchContains, "Commission Fee"},
}

// TaxableIncomePatterns cover earn/staking/airdrop/referral/mining rewards.
// Their receipt-day value is income and also the cost basis of a later sale.
var TaxableIncomePatterns = []Pattern{
	// staking
	{MatchSuffix, "Staking Rewards"},
	{MatchSuffix, "Staking Income"},
	{MatchSuffix, "Staking Interest"},
	{MatchSuffix, "Staking Distribution"},
	{MatchContains, "Staking Reward"},
	// ETH 2.0 / beacon chain
	{MatchContains, "ETH 2.0"},
	{MatchContains, "Beacon"},
	// launchpool
	{MatchPrefix, "Launchpool"},
	// simple earn / savings
	{MatchExact, "Simple Earn Flexible Interest"},
	{MatchExact, "Simple Earn Flexible Airdrop"},
	{MatchExact, "Simple Earn Locked Rewards"},
	{MatchExact, "Simple Earn Locked Interest"},
	{MatchSuffix, "Earn Rewards"},
	{MatchSuffix, "Earn Interest"},
	{MatchExact, "Savings Interest"},
	{MatchExact, "Savings Distribution"},
	// airdrops and distributions
	{MatchExact, "Distribution"},
	{MatchSuffix, "Distribution"},
	{MatchSuffix, "Airdrop"},
	{MatchContains, "Airdrop"},
	// referral / cashback
	{MatchExact, "Referral Kickback"},
	{MatchPrefix, "Referral"},
	{MatchExact, "Commission History"},
	{MatchExact, "Commission Rebate"},
	{MatchPrefix, "Commission"},
	{MatchSuffix, "Cashback"},
	{MatchContains, "Cash Voucher"},
	// other rewards
	{MatchSuffix, "Rewards"},
	{MatchSuffix, "Reward"},
	{MatchSuffix, "Earnings"},
	{MatchSuffix, "Income"},
	{MatchSuffix, "Interest"},
	{MatchExact, "Crypto Box"},
	{MatchExact, "Token Swap Restitution"},
	{MatchContains, "Bonus"},
	{MatchContains, "Alpha 2.0 Token"},
	{MatchContains, "Mission Reward"},
	// mining; under updof usually settled like other crypto income
	{MatchSuffix, "Mining Income"},
	{MatchSuffix, "Mining Rewards"},
	{MatchContains, "Pool Distribution"},
}

// DustPatterns cover small-balance auto-conversions.
var DustPatterns = []Pattern{
	{MatchContains, "Small Assets"},
	{MatchContains, "small assets"},
	{MatchContains, "Dust"},
	{MatchContains, "BNB Convert"},
}

// TechnicalPatterns cover deposits, withdrawals, internal transfers and
// product wrappers with no tax effect.
var TechnicalPatterns = []Pattern{
	// freeze/lock
	{MatchExact, "Freeze"},
	{MatchExact, "Unfreeze"},
	{MatchExact, "Binance Convert"},
	// subscriptions/redemptions
	{MatchSuffix, "Subscription"},
	{MatchSuffix, "Redemption"},
	{MatchSuffix, "purchase"},
	{MatchSuffix, "redemption"},
	// liquid swap
	{MatchPrefix, "Liquid Swap"},
	// transfers
	{MatchExact, "transfer_in"},
	{MatchExact, "transfer_out"},
	{MatchContains, "Account Transfer"},
	{MatchContains, "Funding Account"},
	{MatchExact, "Transfer Between Main and Funding Wallet"},
	{MatchContains, "Main Account/Futures and Margin Account"},
	// deposits/withdrawals
	{MatchExact, "Deposit"},
	{MatchExact, "Fiat Deposit"},
	{MatchExact, "Withdraw"},
	{MatchExact, "Fiat Withdraw"},
	{MatchSuffix, "Deposit"},
	{MatchSuffix, "Withdrawal"},
	{MatchSuffix, "Withdraw"},
	// NFT
	{MatchPrefix, "NFT"},
	// dual investment
	{MatchPrefix, "Dual Investment"},
	// auto-invest
	{MatchPrefix, "Auto-Invest"},
	{MatchPrefix, "Auto Invest"},
	{MatchExact, "Super BNB Mining"},
	// alpha 2.0
	{MatchContains, "Asset Freeze"},
}
