// Package circuit isolates callers from a failing remote endpoint. A Breaker
// tracks consecutive failures; a Barrier composes a Breaker with the retry
// policy; ResilientZoneAPI applies a Barrier to every remote zone call.
package circuit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
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

var ErrCircuitOpen = errors.New("circuit open")

// CircuitOpenError is returned without any network attempt while the
// breaker rejects calls.
type CircuitOpenError struct {
	Name       string
	RetryAfter time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit %s open, retry after %s", e.Name, e.RetryAfter.Round(time.Second))
}

func (e *CircuitOpenError) Is(target error) bool {
	return target == ErrCircuitOpen
}

type Breaker struct {
	mu sync.Mutex

	name            string
	threshold       int
	recoveryTimeout time.Duration
	now             func() time.Time
	onStateChange   func(name string, from, to State)

	state       State
	failures    int
	lastFailure time.Time
	trial       bool
}

type Option func(*Breaker)

func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

func WithRecoveryTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.recoveryTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

func WithStateChangeHook(fn func(name string, from, to State)) Option {
	return func(b *Breaker) {
		b.onStateChange = fn
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:            name,
		threshold:       domain.DefaultFailureThreshold,
		recoveryTimeout: domain.DefaultRecoveryTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string { return b.name }

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

func (b *Breaker) IsOpen() bool {
	return b.State() == StateOpen
}

// Allow reports whether a call may proceed. An open breaker moves to
// half-open on the first call after the recovery timeout; half-open admits a
// single trial call until its outcome is recorded.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		elapsed := b.now().Sub(b.lastFailure)
		if elapsed <= b.recoveryTimeout {
			return &CircuitOpenError{Name: b.name, RetryAfter: b.recoveryTimeout - elapsed}
		}
		b.setState(StateHalfOpen)
		b.trial = true
		return nil
	case StateHalfOpen:
		if b.trial {
			return &CircuitOpenError{Name: b.name}
		}
		b.trial = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.trial = false
	if b.state != StateClosed {
		b.setState(StateClosed)
	}
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	b.trial = false

	switch b.state {
	case StateHalfOpen:
		b.setState(StateOpen)
	case StateClosed:
		if b.failures >= b.threshold {
			b.setState(StateOpen)
		}
	}
}

// Release frees a half-open trial slot without recording an outcome, for
// calls abandoned by their caller.
func (b *Breaker) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trial = false
}

// Reset closes the breaker and clears its failure history.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.trial = false
	b.lastFailure = time.Time{}
	if b.state != StateClosed {
		b.setState(StateClosed)
	}
}

func (b *Breaker) setState(to State) {
	from := b.state
	b.state = to
	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}

// Registry hands out one breaker per endpoint name. State lives only in
// memory and starts closed on every process start.
type Registry struct {
	mu       sync.Mutex
	opts     []Option
	breakers map[string]*Breaker
}

func NewRegistry(opts ...Option) *Registry {
	return &Registry{opts: opts, breakers: make(map[string]*Breaker)}
}

func (r *Registry) Get(name string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.breakers[name]; ok {
		return b
	}
	b := New(name, r.opts...)
	r.breakers[name] = b
	return b
}
