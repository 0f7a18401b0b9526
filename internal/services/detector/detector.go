// Package detector decides whether a rebalance is warranted and turns the
// gap between current and target allocations into trade instructions.
package detector

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/folio/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Detector compares current and target allocations.
type Detector struct {
	assets       []domain.Asset
	tolerancePct decimal.Decimal
	minTradeUSD  decimal.Decimal
}

// New creates a detector for the configured asset set.
func New(assets []domain.Asset, tolerancePct, minTradeUSD decimal.Decimal) *Detector {
	return &Detector{assets: assets, tolerancePct: tolerancePct, minTradeUSD: minTradeUSD}
}

// NeedsRebalance reports whether any asset's allocation gap exceeds the
// tolerance band. A gap of exactly the band width does not trigger. An
// empty portfolio never triggers: there is nothing to trade.
func (d *Detector) NeedsRebalance(current domain.AllocationSnapshot, targets map[string]int) bool {
	if !current.TotalUSD.IsPositive() {
		return false
	}

	for i := range d.assets {
		symbol := d.assets[i].Symbol
		target := decimal.NewFromInt(int64(targets[symbol]))
		gap := target.Sub(current.PercentOf(symbol)).Abs()
		if gap.GreaterThan(d.tolerancePct) {
			return true
		}
	}
	return false
}

// ComputeTrades returns one instruction per asset whose USD delta toward the
// target exceeds the minimum-trade floor. Deltas at or below the floor are
// dropped even when the percentage gap tripped NeedsRebalance; the two gates
// are independent. Output follows the configured asset order.
func (d *Detector) ComputeTrades(current domain.AllocationSnapshot, targets map[string]int) []domain.TradeInstruction {
	var trades []domain.TradeInstruction
	for i := range d.assets {
		symbol := d.assets[i].Symbol
		targetPct := targets[symbol]
		currentPct := current.PercentOf(symbol)

		targetValue := decimal.NewFromInt(int64(targetPct)).Div(hundred).Mul(current.TotalUSD)
		currentValue := currentPct.Div(hundred).Mul(current.TotalUSD)
		delta := targetValue.Sub(currentValue)

		if delta.Abs().GreaterThan(d.minTradeUSD) {
			trades = append(trades, domain.TradeInstruction{
				Symbol:     symbol,
				AmountUSD:  delta,
				CurrentPct: currentPct,
				TargetPct:  targetPct,
			})
		}
	}
	return trades
}
