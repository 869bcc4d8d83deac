// Package ratelimit implements the per-user command cooldown gate.
package ratelimit

import (
	"sync"
	"time"
)

// Result captures the outcome of a cooldown evaluation.
type Result struct {
	Allowed     bool
	WaitSeconds int
}

// Cooldown is a per-user fixed-window gate: one accepted command per
// cooldown window. Rejected attempts never touch the stored timestamp,
// so bursts cannot extend a user's lockout.
type Cooldown struct {
	mu       sync.Mutex
	window   time.Duration
	lastSeen map[string]time.Time

	now func() time.Time
}

// NewCooldown constructs a cooldown gate with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{
		window:   window,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Check evaluates the gate for the user. On acceptance the stored
// timestamp advances to now; on rejection it is left untouched and the
// remaining wait is reported in whole seconds, rounded down.
func (c *Cooldown) Check(userID string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.lastSeen[userID]; ok {
		if elapsed := now.Sub(last); elapsed < c.window {
			return Result{
				Allowed:     false,
				WaitSeconds: int((c.window - elapsed) / time.Second),
			}
		}
	}

	c.lastSeen[userID] = now
	return Result{Allowed: true}
}

// Clear drops the user's cooldown record. Administrative override, not
// used automatically.
func (c *Cooldown) Clear(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lastSeen, userID)
}
