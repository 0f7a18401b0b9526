// Package domain defines core data structures used throughout the rebalancer.
package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Asset is a token supported for rebalancing on the configured chain.
type Asset struct {
	// Symbol ticker, e.g. "USDC".
	Symbol string
	// Address token contract address used for pricing and swaps.
	Address string
	// Decimals token precision.
	Decimals int32
	// Native marks the chain's gas asset: its balance is read from the
	// account itself, not from a token contract.
	Native bool
}

// HumanUnits converts a raw smallest-unit amount to whole token units.
func (a *Asset) HumanUnits(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -a.Decimals)
}

// RawUnits converts a whole-unit amount to the asset's smallest unit,
// rounded to the asset's precision.
func (a *Asset) RawUnits(amount decimal.Decimal) *big.Int {
	return amount.Round(a.Decimals).Shift(a.Decimals).BigInt()
}
