// Package allocation derives the current portfolio split from balances and
// prices and manages the user-edited target split.
package allocation

import (
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/folio/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Compute builds an AllocationSnapshot from one pair of balance and price
// snapshots. A missing balance or price counts as zero value for that asset.
// When the total is zero all percentages are zero.
func Compute(assets []domain.Asset, balances map[string]*big.Int, prices map[string]decimal.Decimal) domain.AllocationSnapshot {
	snapshot := domain.AllocationSnapshot{
		Values:   make(map[string]decimal.Decimal, len(assets)),
		Percent:  make(map[string]decimal.Decimal, len(assets)),
		TotalUSD: decimal.Zero,
	}

	for i := range assets {
		asset := &assets[i]
		value := decimal.Zero
		raw, okBalance := balances[asset.Symbol]
		price, okPrice := prices[asset.Symbol]
		if okBalance && okPrice {
			value = asset.HumanUnits(raw).Mul(price)
		}
		snapshot.Values[asset.Symbol] = value
		snapshot.TotalUSD = snapshot.TotalUSD.Add(value)
	}

	for i := range assets {
		symbol := assets[i].Symbol
		if snapshot.TotalUSD.IsPositive() {
			snapshot.Percent[symbol] = snapshot.Values[symbol].Div(snapshot.TotalUSD).Mul(hundred)
		} else {
			snapshot.Percent[symbol] = decimal.Zero
		}
	}

	return snapshot
}
