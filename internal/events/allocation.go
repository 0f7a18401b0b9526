// Package events fans out allocation snapshots to dashboard subscribers.
package events

import (
	"sync"
	"time"
)

// AllocationUpdate is a domain event carrying one recomputed portfolio split.
// String fields avoid float precision issues when consumed by web/UI layers.
type AllocationUpdate struct {
	Timestamp time.Time         `json:"ts"`
	Percent   map[string]string `json:"percent"`
	Values    map[string]string `json:"values"`
	TotalUSD  string            `json:"total_usd"`
	Targets   map[string]int    `json:"targets"`
}

// AllocationBroadcaster fans out updates to all subscribers via buffered
// channels, dropping events for slow readers.
type AllocationBroadcaster struct {
	mu     sync.RWMutex
	subs   map[chan AllocationUpdate]struct{}
	buffer int
}

// NewAllocationBroadcaster creates a broadcaster with the given
// per-subscriber buffer.
func NewAllocationBroadcaster(buffer int) *AllocationBroadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &AllocationBroadcaster{
		subs:   make(map[chan AllocationUpdate]struct{}),
		buffer: buffer,
	}
}

// Publish sends the update to all subscribers.
func (b *AllocationBroadcaster) Publish(u AllocationUpdate) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- u:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives updates until Unsubscribe.
func (b *AllocationBroadcaster) Subscribe() chan AllocationUpdate {
	ch := make(chan AllocationUpdate, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *AllocationBroadcaster) Unsubscribe(ch chan AllocationUpdate) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}
