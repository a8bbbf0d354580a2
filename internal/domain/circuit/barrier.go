package circuit

import (
	"context"
	"errors"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/retry"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

// Observer receives call accounting from a Barrier.
type Observer interface {
	ObserveCall(endpoint, op string, err error, d time.Duration)
	ObserveRetry(endpoint, op string)
}

type nopObserver struct{}

func (nopObserver) ObserveCall(string, string, error, time.Duration) {}
func (nopObserver) ObserveRetry(string, string)                      {}

// Barrier wraps one logical remote call: the breaker gates it, the retry
// policy repeats it, and each attempt runs under its own timeout. A call that
// exhausts its retries counts as a single breaker failure. Structural answers
// and permanent rejections prove the endpoint is up and count as successes.
type Barrier struct {
	breaker   *Breaker
	timeout   time.Duration
	retryOpts []retry.Option
	observer  Observer
}

type BarrierOption func(*Barrier)

func WithTimeout(d time.Duration) BarrierOption {
	return func(b *Barrier) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func WithRetryOptions(opts ...retry.Option) BarrierOption {
	return func(b *Barrier) {
		b.retryOpts = append(b.retryOpts, opts...)
	}
}

func WithObserver(o Observer) BarrierOption {
	return func(b *Barrier) {
		if o != nil {
			b.observer = o
		}
	}
}

func NewBarrier(breaker *Breaker, opts ...BarrierOption) *Barrier {
	b := &Barrier{
		breaker:  breaker,
		timeout:  domain.DefaultCallTimeout,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Barrier) Breaker() *Breaker { return b.breaker }

func (b *Barrier) Execute(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	if err := b.breaker.Allow(); err != nil {
		logger.FromContext(ctx).Warn("remote call rejected", "endpoint", b.breaker.Name(), "op", op, "error", err)
		b.observer.ObserveCall(b.breaker.Name(), op, err, 0)
		return err
	}

	opts := append([]retry.Option{
		retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
			b.observer.ObserveRetry(b.breaker.Name(), op)
			logger.FromContext(ctx).Warn("retrying remote call",
				"endpoint", b.breaker.Name(), "op", op, "attempt", attempt, "delay", delay, "error", err)
		}),
	}, b.retryOpts...)

	err := retry.Do(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()
		return fn(callCtx)
	}, opts...)

	switch {
	case errors.Is(err, retry.ErrContextCanceled) && ctx.Err() != nil:
		b.breaker.Release()
	case err == nil, answered(err):
		b.breaker.RecordSuccess()
	default:
		b.breaker.RecordFailure()
	}
	b.observer.ObserveCall(b.breaker.Name(), op, err, time.Since(start))
	return err
}

func answered(err error) bool {
	if domain.IsStructural(err) || errors.Is(err, domain.ErrInvalidInput) {
		return true
	}
	var p interface{ Permanent() bool }
	return errors.As(err, &p) && p.Permanent()
}

// Do runs fn through the barrier and returns its result.
func Do[T any](ctx context.Context, b *Barrier, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, op, func(ctx context.Context) error {
		r, err := fn(ctx)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}
