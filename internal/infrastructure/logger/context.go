package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type ctxKey struct{}

func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return L()
	}
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return L()
}

func WithOperation(ctx context.Context, operation string) context.Context {
	logger := FromContext(ctx).With(
		"operation", operation,
		"op_id", generateShortID(),
	)
	return ContextWithLogger(ctx, logger)
}

// WithRun tags every log line of one reconciliation run.
func WithRun(ctx context.Context, dryRun bool) context.Context {
	mode := "write"
	if dryRun {
		mode = "dry-run"
	}
	logger := FromContext(ctx).With("run_id", generateShortID(), "mode", mode)
	return ContextWithLogger(ctx, logger)
}

func WithDomain(ctx context.Context, domain string) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With("domain", domain))
}

func generateShortID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return hex.EncodeToString(b)
}
