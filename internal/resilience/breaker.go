// Package resilience provides reliability patterns for external service calls.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the circuit breaker is open and rejecting calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the circuit position. Closed admits all calls, Open rejects
// them, HalfOpen admits probes after the cooldown.
type State uint8

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Breaker guards calls to one external dependency (a reasoning provider,
// the commerce API). Consecutive failures past the threshold open the
// circuit; after the cooldown a probe call decides whether it closes again.
type Breaker struct {
	name      string
	threshold int
	cooldown  time.Duration
	clock     func() time.Time

	mu          sync.Mutex
	state       State
	consecutive int
	reopenAt    time.Time
}

// NewBreaker builds a breaker that opens after threshold consecutive
// failures and cools down for the given duration before probing. The name
// appears in state-change logs.
func NewBreaker(name string, threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		name:      name,
		threshold: threshold,
		cooldown:  cooldown,
		clock:     time.Now,
	}
}

// Execute runs fn unless the circuit is open, in which case it returns
// ErrCircuitOpen without invoking fn.
func (b *Breaker) Execute(fn func() error) error {
	if !b.admit() {
		return ErrCircuitOpen
	}

	err := fn()
	b.observe(err == nil)
	return err
}

// State reports the current circuit position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if b.clock().Before(b.reopenAt) {
			return false
		}
		b.state = HalfOpen
	}
	return true
}

func (b *Breaker) observe(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ok {
		if b.state != Closed {
			slog.Info("circuit closed", "breaker", b.name)
		}
		b.state = Closed
		b.consecutive = 0
		return
	}

	b.consecutive++
	// A failed half-open probe reopens immediately regardless of count.
	if b.state == HalfOpen || b.consecutive >= b.threshold {
		if b.state != Open {
			slog.Warn("circuit opened",
				"breaker", b.name, "consecutive_failures", b.consecutive)
		}
		b.state = Open
		b.reopenAt = b.clock().Add(b.cooldown)
	}
}
