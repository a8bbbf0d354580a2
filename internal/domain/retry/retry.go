package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

var (
	ErrMaxAttemptsExceeded = errors.New("max retry attempts exceeded")
	ErrContextCanceled     = errors.New("context canceled")
)

// Config drives the backoff schedule. The wait before retry n (1-based) is
// Unit * Base^n scaled by a jitter factor, capped at MaxDelay.
type Config struct {
	MaxRetries  int
	Base        float64
	Unit        time.Duration
	MaxDelay    time.Duration
	Jitter      func() float64
	Sleep       func(ctx context.Context, d time.Duration) error
	IsRetryable func(error) bool
	OnRetry     func(attempt int, delay time.Duration, err error)
}

type Option func(*Config)

func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

func WithBase(b float64) Option {
	return func(c *Config) {
		c.Base = b
	}
}

func WithUnit(d time.Duration) Option {
	return func(c *Config) {
		c.Unit = d
	}
}

func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

func WithJitter(fn func() float64) Option {
	return func(c *Config) {
		c.Jitter = fn
	}
}

func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Config) {
		c.Sleep = fn
	}
}

func WithIsRetryable(fn func(error) bool) Option {
	return func(c *Config) {
		c.IsRetryable = fn
	}
}

func WithOnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

func DefaultConfig() *Config {
	return &Config{
		MaxRetries:  domain.DefaultMaxRetries,
		Base:        domain.DefaultBackoffBase,
		Unit:        domain.DefaultBackoffUnit,
		MaxDelay:    domain.DefaultMaxBackoff,
		Jitter:      DefaultJitter,
		Sleep:       sleepContext,
		IsRetryable: DefaultIsRetryable,
		OnRetry:     defaultOnRetry,
	}
}

// DefaultJitter returns a uniform factor in [0.5, 1.5).
func DefaultJitter() float64 {
	return 0.5 + rand.Float64()
}

// DefaultIsRetryable treats everything as transient except structural
// answers (absent or unserved zones, unsupported operations), invalid input
// and errors that declare themselves permanent (client-side API rejections).
func DefaultIsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if domain.IsStructural(err) || errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	var p interface{ Permanent() bool }
	if errors.As(err, &p) && p.Permanent() {
		return false
	}
	return true
}

func defaultOnRetry(attempt int, delay time.Duration, err error) {
	logger.Warn("retrying after failure", "attempt", attempt, "error", err, "delay", delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Delay is the wait before retry n, before jitter.
func (c *Config) Delay(n int) time.Duration {
	d := time.Duration(float64(c.Unit) * math.Pow(c.Base, float64(n)))
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

func (c *Config) jittered(n int) time.Duration {
	d := c.Delay(n)
	if c.Jitter != nil {
		d = time.Duration(float64(d) * c.Jitter())
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

func Do(ctx context.Context, fn func() error, opts ...Option) error {
	_, err := DoWithResult(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	}, opts...)
	return err
}

func DoWithResult[T any](ctx context.Context, fn func() (T, error), opts ...Option) (T, error) {
	var zero T

	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := cfg.jittered(attempt)
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, delay, lastErr)
			}
			if err := cfg.Sleep(ctx, delay); err != nil {
				return zero, errors.Join(ErrContextCanceled, err)
			}
		}

		select {
		case <-ctx.Done():
			return zero, errors.Join(ErrContextCanceled, ctx.Err())
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !cfg.IsRetryable(err) {
			return zero, err
		}
	}

	return zero, errors.Join(ErrMaxAttemptsExceeded, lastErr)
}
