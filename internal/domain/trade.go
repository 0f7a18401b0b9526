package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TradeInstruction is a single leg of a rebalance: the signed USD amount to
// move for one asset. Negative means sell, positive means buy.
type TradeInstruction struct {
	// Symbol asset ticker.
	Symbol string
	// AmountUSD signed USD delta toward the target.
	AmountUSD decimal.Decimal
	// CurrentPct share of the portfolio before the trade.
	CurrentPct decimal.Decimal
	// TargetPct user-chosen share.
	TargetPct int
}

// IsSell reports whether the instruction reduces the position.
func (t *TradeInstruction) IsSell() bool {
	return t.AmountUSD.IsNegative()
}

// String returns a human-readable representation.
func (t *TradeInstruction) String() string {
	verb := "buy"
	if t.IsSell() {
		verb = "sell"
	}
	return fmt.Sprintf("%s $%s of %s (%s%% -> %d%%)",
		verb, t.AmountUSD.Abs().StringFixed(2), t.Symbol, t.CurrentPct.StringFixed(1), t.TargetPct)
}
