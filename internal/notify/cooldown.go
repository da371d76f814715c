// Package notify implements the background reminder dispatcher: a periodic
// scan over every user's upcoming tasks that hands due reminders to a push
// transport exactly once per scheduled occurrence.
package notify

import (
	"sync"
	"time"
)

// CooldownGate is an in-memory guard against duplicate sends for the same
// task occurrence. The persistent notification flag survives restarts but is
// only written after a successful send; the gate closes the window between
// overlapping or rapid successive scans before that write lands.
//
// Entries are keyed by caller-chosen strings and expire after the configured
// period. The gate is safe for concurrent use.
type CooldownGate struct {
	mu      sync.Mutex
	period  time.Duration
	stamped map[string]time.Time
}

// NewCooldownGate creates a gate whose entries expire after period.
func NewCooldownGate(period time.Duration) *CooldownGate {
	return &CooldownGate{
		period:  period,
		stamped: make(map[string]time.Time),
	}
}

// TryAcquire stamps the key at now and reports whether the caller won the
// slot. It returns false when a live stamp already exists; expired stamps
// are replaced. Check and stamp happen atomically, so of two concurrent
// callers exactly one acquires.
func (g *CooldownGate) TryAcquire(key string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if stamped, ok := g.stamped[key]; ok && now.Sub(stamped) < g.period {
		return false
	}
	g.stamped[key] = now
	return true
}

// Release removes the key's stamp so the next scan may retry. Callers use
// this when the send failed after the slot was acquired.
func (g *CooldownGate) Release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.stamped, key)
}

// Sweep drops expired stamps. The dispatcher calls this once per run to keep
// the map from accumulating entries for long-gone occurrences.
func (g *CooldownGate) Sweep(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, stamped := range g.stamped {
		if now.Sub(stamped) >= g.period {
			delete(g.stamped, key)
		}
	}
}
