// Package circuitbreaker guards the REST transport against hammering an
// unhealthy endpoint: after a run of failures the breaker opens and calls
// fail fast until a probe succeeds.
package circuitbreaker

import (
	"sync"
	"time"
)

// State is the breaker position.
type State int

const (
	// StateClosed passes every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown elapses.
	StateOpen
	// StateHalfOpen passes probe calls through to test recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	return [...]string{"closed", "open", "half-open"}[s]
}

// Config holds the breaker thresholds.
type Config struct {
	// FailThreshold is the run of consecutive failures that opens the breaker.
	FailThreshold int
	// SuccessThreshold is the run of consecutive probe successes that closes it.
	SuccessThreshold int
	// Timeout is the cooldown before an open breaker admits a probe.
	Timeout time.Duration
}

// Breaker is a three-state circuit breaker. Allow asks permission before a
// call; Record reports the outcome after.
type Breaker struct {
	config Config

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time

	totalCalls   int64
	rejected     int64
	stateChanges int64
}

// New creates a closed Breaker with the given thresholds.
func New(config Config) *Breaker {
	if config.FailThreshold <= 0 {
		config.FailThreshold = 5
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 2
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Breaker{config: config}
}

// Allow reports whether a call may proceed. An open breaker admits one
// probe stream after its cooldown by moving to half-open.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalCalls++
	switch b.state {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Since(b.openedAt) >= b.config.Timeout {
			b.transition(StateHalfOpen)
			return true
		}
		b.rejected++
		return false
	}
	return false
}

// Record reports a call outcome and moves the breaker accordingly.
func (b *Breaker) Record(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.config.FailThreshold {
			b.openedAt = time.Now()
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		if !success {
			b.openedAt = time.Now()
			b.successes = 0
			b.transition(StateOpen)
			return
		}
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.failures = 0
			b.successes = 0
			b.transition(StateClosed)
		}
	case StateOpen:
		// Outcomes that raced the opening are ignored.
	}
}

func (b *Breaker) transition(next State) {
	b.state = next
	b.stateChanges++
}

// State returns the breaker position.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

// MetricsSnapshot is a point-in-time capture of breaker statistics.
type MetricsSnapshot struct {
	TotalCalls   int64
	Rejected     int64
	StateChanges int64
	CurrentState string
}

// Metrics returns a snapshot of breaker statistics.
func (b *Breaker) Metrics() MetricsSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return MetricsSnapshot{
		TotalCalls:   b.totalCalls,
		Rejected:     b.rejected,
		StateChanges: b.stateChanges,
		CurrentState: b.state.String(),
	}
}
