package allocation

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Redistribute applies a single target edit to the previous target set and
// spreads the remainder over the untouched assets in proportion to their
// pre-edit values, rounding each to the nearest integer independently.
// Because of that independent rounding the resulting sum may drift to 99-101;
// this matches the slider behavior users see and is deliberately not
// re-normalized (the decision engine's tolerance band absorbs it). When the
// untouched assets were all at zero they stay at zero.
func Redistribute(prev map[string]int, symbol string, pct int) map[string]int {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	next := make(map[string]int, len(prev))
	othersSum := 0
	for s, p := range prev {
		next[s] = p
		if s != symbol {
			othersSum += p
		}
	}
	next[symbol] = pct

	if othersSum > 0 {
		remaining := decimal.NewFromInt(int64(100 - pct))
		sum := decimal.NewFromInt(int64(othersSum))
		for s, p := range prev {
			if s == symbol {
				continue
			}
			next[s] = int(decimal.NewFromInt(int64(p)).Div(sum).Mul(remaining).Round(0).IntPart())
		}
	}

	return next
}

// Targets holds the user-edited target percentages for the session.
// HTTP handlers and the TUI mutate it concurrently, hence the mutex.
type Targets struct {
	mu      sync.RWMutex
	percent map[string]int
}

// NewTargets creates a target set from the initial split.
func NewTargets(initial map[string]int) *Targets {
	percent := make(map[string]int, len(initial))
	for s, p := range initial {
		percent[s] = p
	}
	return &Targets{percent: percent}
}

// Set applies one slider edit with proportional redistribution.
func (t *Targets) Set(symbol string, pct int) {
	t.mu.Lock()
	t.percent = Redistribute(t.percent, symbol, pct)
	t.mu.Unlock()
}

// Get returns a copy of the current target set.
func (t *Targets) Get() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	percent := make(map[string]int, len(t.percent))
	for s, p := range t.percent {
		percent[s] = p
	}
	return percent
}

// Sum returns the current total of all targets.
func (t *Targets) Sum() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sum := 0
	for _, p := range t.percent {
		sum += p
	}
	return sum
}
