package httpclient

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned without sending a request while the breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState is the state of a Breaker
type BreakerState int

const (
	StateClosed BreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker opens after threshold consecutive failures and rejects calls for
// cooldown. The first call after the cooldown is a half-open trial: success
// closes the breaker, failure opens it again.
type Breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	state       BreakerState
	failures    int
	nextAttempt time.Time
}

// NewBreaker creates a closed breaker
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// State returns the current state, moving open to half-open once the cooldown passed
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && !b.now().Before(b.nextAttempt) {
		return StateHalfOpen
	}
	return b.state
}

// Allow reports whether a call may proceed
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Before(b.nextAttempt) {
			return false
		}
		b.state = StateHalfOpen
		return true
	case StateHalfOpen:
		// one trial call at a time
		return false
	}
	return true
}

// Abandon releases an allowed call that ended without an upstream verdict.
// A half-open trial goes back to open with its cooldown already spent, so
// the next call is a trial again. Failure counts are left alone.
func (b *Breaker) Abandon() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateHalfOpen {
		b.state = StateOpen
	}
}

// Record feeds the outcome of an allowed call
func (b *Breaker) Record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !failed {
		b.state = StateClosed
		b.failures = 0
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.threshold {
		b.state = StateOpen
		b.nextAttempt = b.now().Add(b.cooldown)
	}
}
