package alerts

import (
	"sync"
	"time"
)

// Cooldown rate-limits events per key.
type Cooldown struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

func NewCooldown() *Cooldown {
	return &Cooldown{
		last: make(map[string]time.Time),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Allow reports whether key may fire now and, if so, starts a new
// cooldown period for it. A non-positive period always allows.
func (c *Cooldown) Allow(key string, period time.Duration) bool {
	if period <= 0 {
		return true
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts, ok := c.last[key]; ok && now.Sub(ts) < period {
		return false
	}
	c.last[key] = now
	return true
}

// Ready is Allow without starting a cooldown. Pair it with Mark when the
// event may still fail.
func (c *Cooldown) Ready(key string, period time.Duration) bool {
	if period <= 0 {
		return true
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	ts, ok := c.last[key]
	return !ok || now.Sub(ts) >= period
}

// Mark starts a cooldown period for key.
func (c *Cooldown) Mark(key string) {
	now := c.now()
	c.mu.Lock()
	c.last[key] = now
	c.mu.Unlock()
}

func (c *Cooldown) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = make(map[string]time.Time)
}
