package domain

import "github.com/shopspring/decimal"

// AllocationSnapshot is the current portfolio split derived from one pair of
// balance and price snapshots. Percentages may not sum to exactly 100 due to
// rounding; TotalUSD is zero when the wallet is empty or prices are missing.
type AllocationSnapshot struct {
	// Values per-asset USD value keyed by symbol.
	Values map[string]decimal.Decimal
	// Percent per-asset share of TotalUSD, 0-100.
	Percent map[string]decimal.Decimal
	// TotalUSD portfolio value.
	TotalUSD decimal.Decimal
}

// PercentOf returns the asset's current share, zero if unknown.
func (s *AllocationSnapshot) PercentOf(symbol string) decimal.Decimal {
	if s.Percent == nil {
		return decimal.Zero
	}
	return s.Percent[symbol]
}
