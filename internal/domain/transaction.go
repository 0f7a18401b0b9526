package domain

// PreparedTransaction is a ready-to-sign transaction assembled by the
// aggregator. Single-use: handed to the wallet once and discarded.
type PreparedTransaction struct {
	// To destination contract.
	To string
	// Data ABI-encoded call data, 0x-prefixed hex.
	Data string
	// Value native-currency amount in wei as a decimal string; empty or "0"
	// when no leg spends the chain's native asset.
	Value string
}

// HasValue reports whether the transaction spends native currency.
func (p *PreparedTransaction) HasValue() bool {
	return p.Value != "" && p.Value != "0"
}
