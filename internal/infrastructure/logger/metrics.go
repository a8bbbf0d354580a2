package logger

import (
	"context"
	"sync"
	"time"
)

// OperationObserver receives the outcome of every timed operation.
type OperationObserver func(operation string, err error, duration time.Duration)

var (
	observerMu sync.RWMutex
	observer   OperationObserver
)

func SetOperationObserver(fn OperationObserver) {
	observerMu.Lock()
	defer observerMu.Unlock()
	observer = fn
}

func recordOperation(operation string, err error, duration time.Duration) {
	observerMu.RLock()
	fn := observer
	observerMu.RUnlock()
	if fn != nil {
		fn(operation, err, duration)
	}
}

func TimedOperation(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	log := FromContext(ctx).With("operation", operation)
	log.Debug("starting operation")

	err := fn()
	duration := time.Since(start)

	recordOperation(operation, err, duration)

	if err != nil {
		log.Error("operation failed", "error", err, "duration", duration)
	} else {
		log.Debug("operation completed", "duration", duration)
	}

	return err
}
