package circuit

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestBreaker_InitialState(t *testing.T) {
	b := New("pdns")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "pdns", b.Name())
	assert.NoError(t, b.Allow())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("pdns")

	for i := 0; i < 4; i++ {
		require.NoError(t, b.Allow())
		b.RecordFailure()
		assert.False(t, b.IsOpen(), "failure %d should not open", i+1)
	}

	require.NoError(t, b.Allow())
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	err := b.Allow()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	var openErr *CircuitOpenError
	require.True(t, errors.As(err, &openErr))
	assert.Equal(t, "pdns", openErr.Name)
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("pdns", WithFailureThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	assert.Equal(t, 0, b.Failures())

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_HalfOpenAfterRecoveryTimeout(t *testing.T) {
	clock := newFakeClock()
	b := New("pdns", WithFailureThreshold(1), WithRecoveryTimeout(60*time.Second), WithClock(clock.Now))

	b.RecordFailure()
	require.True(t, b.IsOpen())

	clock.Advance(60 * time.Second)
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen, "recovery timeout must be strictly exceeded")

	clock.Advance(time.Second)
	require.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())

	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen, "half-open admits a single trial")

	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
	assert.NoError(t, b.Allow())
	assert.NoError(t, b.Allow())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := newFakeClock()
	b := New("pdns", WithFailureThreshold(1), WithRecoveryTimeout(time.Minute), WithClock(clock.Now))

	b.RecordFailure()
	clock.Advance(2 * time.Minute)
	require.NoError(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrCircuitOpen)
}

func TestBreaker_ReleaseFreesTrial(t *testing.T) {
	clock := newFakeClock()
	b := New("pdns", WithFailureThreshold(1), WithClock(clock.Now))

	b.RecordFailure()
	clock.Advance(2 * time.Minute)
	require.NoError(t, b.Allow())
	b.Release()
	assert.NoError(t, b.Allow())
}

func TestBreaker_StateChangeHook(t *testing.T) {
	var transitions []string
	b := New("pdns", WithFailureThreshold(1), WithStateChangeHook(func(name string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	}))

	b.RecordFailure()
	b.Reset()
	assert.Equal(t, []string{"closed->open", "open->closed"}, transitions)
}

func TestRegistry_OneBreakerPerEndpoint(t *testing.T) {
	r := NewRegistry(WithFailureThreshold(1))
	a := r.Get("pdns")
	assert.Same(t, a, r.Get("pdns"))

	a.RecordFailure()
	assert.True(t, a.IsOpen())
	assert.False(t, r.Get("cloudflare").IsOpen())
}
