// Package circuit provides a consecutive-failure circuit breaker for calls
// to flaky dependencies. Callers record outcomes; the breaker tells them
// when to stop hitting the primary and use a fallback instead.
package circuit

import "sync"

// State is the breaker's position.
type State int

const (
	// StateClosed passes calls through to the primary.
	StateClosed State = iota
	// StateOpen short-circuits calls to the fallback.
	StateOpen
)

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 3
)

// StateChange reports a transition caused by the recorded outcome. Both
// fields false means the state did not move.
type StateChange struct {
	Opened bool
	Closed bool
}

// Breaker tracks consecutive outcomes:
//   - Closed: failures count up; reaching the failure threshold opens.
//     A success resets the count.
//   - Open: successes (from probe traffic) count up; reaching the success
//     threshold closes. A failure resets the count.
type Breaker struct {
	mu               sync.Mutex
	name             string
	state            State
	failureCount     int
	successCount     int
	failureThreshold int
	successThreshold int
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the circuit.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes close an open
// circuit.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

// New creates a closed Breaker. The name identifies the protected
// dependency in logs and metrics.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the protected dependency's name.
func (b *Breaker) Name() string { return b.name }

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsOpen reports whether calls should go to the fallback.
func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// RecordFailure registers a primary failure. useFallback is true when the
// circuit is (now) open.
func (b *Breaker) RecordFailure() (useFallback bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		b.successCount = 0
		return true, StateChange{}
	}

	b.failureCount++
	if b.failureCount >= b.failureThreshold {
		b.state = StateOpen
		b.successCount = 0
		return true, StateChange{Opened: true}
	}
	return false, StateChange{}
}

// RecordSuccess registers a primary success. usePrimary is true when the
// circuit is (now) closed.
func (b *Breaker) RecordSuccess() (usePrimary bool, change StateChange) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		b.successCount++
		if b.successCount >= b.successThreshold {
			b.state = StateClosed
			b.failureCount = 0
			b.successCount = 0
			return true, StateChange{Closed: true}
		}
		return false, StateChange{}
	}

	b.failureCount = 0
	return true, StateChange{}
}

// Reset forces the breaker closed and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failureCount = 0
	b.successCount = 0
}
