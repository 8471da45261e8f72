package services

import (
	"sync"
	"time"
)

const DefaultRefreshCooldown = 6 * time.Hour

// RefreshGate admits at most one refresh per cooldown window.
// State lives in memory only, a restart opens the gate again.
type RefreshGate struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time
	lastRun  time.Time
	hasRun   bool
}

type RefreshGateOption func(*RefreshGate)

func WithClock(now func() time.Time) RefreshGateOption {
	return func(g *RefreshGate) {
		g.now = now
	}
}

func NewRefreshGate(cooldown time.Duration, opts ...RefreshGateOption) *RefreshGate {
	if cooldown <= 0 {
		cooldown = DefaultRefreshCooldown
	}
	g := &RefreshGate{cooldown: cooldown, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Admit records the current time and returns true when the gate is idle.
// While cooling down it returns false and leaves the state untouched.
func (g *RefreshGate) Admit() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.admit(g.now())
}

// AdmitScheduled is Admit for a trigger that was due at scheduled, the window is measured
// from the scheduled time. A zero or future scheduled time falls back to now.
func (g *RefreshGate) AdmitScheduled(scheduled time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if scheduled.IsZero() || scheduled.After(now) {
		scheduled = now
	}
	return g.admit(scheduled)
}

func (g *RefreshGate) admit(at time.Time) bool {
	if g.hasRun && at.Sub(g.lastRun) < g.cooldown {
		return false
	}

	g.lastRun = at
	g.hasRun = true
	return true
}

// NextAllowed is the earliest moment Admit will succeed again.
func (g *RefreshGate) NextAllowed() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.hasRun {
		return g.now()
	}
	return g.lastRun.Add(g.cooldown)
}

func (g *RefreshGate) Cooldown() time.Duration {
	return g.cooldown
}
