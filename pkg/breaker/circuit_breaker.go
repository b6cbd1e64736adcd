// Package breaker implements the circuit breaker pattern, adapted from
// golivekit's pkg/core circuit breaker to guard against hammering a
// dead WebSocket endpoint with connect attempts instead of guarding
// HTTP component calls.
package breaker

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrOpen is returned by Allow, and by Execute without calling fn, when
// the breaker is open.
var ErrOpen = errors.New("breaker: circuit is open")

// State is the circuit breaker's current state.
type State int32

const (
	// Closed means connect attempts are let through normally.
	Closed State = iota
	// Open means recent consecutive failures tripped the breaker;
	// connect attempts are rejected until ResetTimeout elapses.
	Open
	// HalfOpen means the reset timeout elapsed and the breaker is
	// letting a probing attempt through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures a CircuitBreaker.
type Config struct {
	// MaxConsecutiveFailures is the number of consecutive connect
	// failures before the breaker opens.
	MaxConsecutiveFailures int
	// ResetTimeout is how long the breaker stays open before allowing
	// a half-open probe attempt.
	ResetTimeout time.Duration
	// SuccessThreshold is the number of successful probes needed, while
	// half-open, to close the breaker again.
	SuccessThreshold int
	// OnStateChange, if set, is called whenever the breaker transitions.
	OnStateChange func(from, to State)
}

// DefaultConfig returns sensible defaults: open after 5 consecutive
// failures, retry a probe after 30s, close after 2 consecutive probe
// successes.
func DefaultConfig() *Config {
	return &Config{
		MaxConsecutiveFailures: 5,
		ResetTimeout:           30 * time.Second,
		SuccessThreshold:       2,
	}
}

// CircuitBreaker bounds how often a failing connect attempt is retried.
// It does not change what eventually happens on success, only how
// aggressively failures are retried in the meantime.
type CircuitBreaker struct {
	config *Config

	state        atomic.Int32
	errorCount   atomic.Int32
	successCount atomic.Int32
	lastError    atomic.Int64

	mu sync.Mutex
}

// New creates a CircuitBreaker. A nil config uses DefaultConfig.
func New(config *Config) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	cb := &CircuitBreaker{config: config}
	cb.state.Store(int32(Closed))
	return cb
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	return State(cb.state.Load())
}

// Allow reports whether a connect attempt should proceed. Calling Allow
// while Open and past ResetTimeout transitions the breaker to HalfOpen
// and allows the probe through.
func (cb *CircuitBreaker) Allow() error {
	switch cb.State() {
	case Closed, HalfOpen:
		return nil
	case Open:
		lastErr := time.Unix(0, cb.lastError.Load())
		if time.Since(lastErr) > cb.config.ResetTimeout {
			cb.setState(HalfOpen)
			return nil
		}
		return ErrOpen
	}
	return nil
}

// RecordSuccess reports a successful connect attempt.
func (cb *CircuitBreaker) RecordSuccess() {
	switch cb.State() {
	case Closed:
		cb.errorCount.Store(0)
	case HalfOpen:
		if int(cb.successCount.Add(1)) >= cb.config.SuccessThreshold {
			cb.setState(Closed)
			cb.successCount.Store(0)
			cb.errorCount.Store(0)
		}
	case Open:
		cb.errorCount.Store(0)
	}
}

// RecordError reports a failed connect attempt.
func (cb *CircuitBreaker) RecordError() {
	cb.lastError.Store(time.Now().UnixNano())

	switch cb.State() {
	case Closed:
		if int(cb.errorCount.Add(1)) >= cb.config.MaxConsecutiveFailures {
			cb.setState(Open)
		}
	case HalfOpen:
		cb.setState(Open)
		cb.successCount.Store(0)
	case Open:
	}
}

// Reset forces the breaker back to Closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(Closed)
	cb.errorCount.Store(0)
	cb.successCount.Store(0)
}

// Metrics is a snapshot of breaker counters.
type Metrics struct {
	State        State
	ErrorCount   int
	SuccessCount int
	LastError    time.Time
}

// Metrics returns a snapshot of the breaker's current counters.
func (cb *CircuitBreaker) Metrics() Metrics {
	return Metrics{
		State:        cb.State(),
		ErrorCount:   int(cb.errorCount.Load()),
		SuccessCount: int(cb.successCount.Load()),
		LastError:    time.Unix(0, cb.lastError.Load()),
	}
}

func (cb *CircuitBreaker) setState(newState State) {
	oldState := State(cb.state.Swap(int32(newState)))
	if cb.config.OnStateChange != nil && oldState != newState {
		cb.config.OnStateChange(oldState, newState)
	}
}

// Execute runs fn only if Allow permits it, then records the outcome.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.Allow(); err != nil {
		return err
	}
	err := fn()
	if err != nil {
		cb.RecordError()
	} else {
		cb.RecordSuccess()
	}
	return err
}
