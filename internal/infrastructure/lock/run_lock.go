// Package lock keeps reconciliation runs on one host mutually exclusive.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

var ErrLockHeld = errors.New("another run holds the lock")

// Metadata is written into the lock file by its holder.
type Metadata struct {
	PID       int       `json:"pid"`
	Timestamp time.Time `json:"timestamp"`
	Hostname  string    `json:"hostname,omitempty"`
}

type HeldError struct {
	Path   string
	Holder Metadata
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("%s: pid %d since %s", e.Path, e.Holder.PID, e.Holder.Timestamp.Format(time.RFC3339))
}

func (e *HeldError) Unwrap() error { return ErrLockHeld }

type RunLock struct {
	path       string
	staleAfter time.Duration
	now        func() time.Time
	pidAlive   func(pid int) bool
	pid        int

	flock *flock.Flock
}

type Option func(*RunLock)

func WithStaleAfter(d time.Duration) Option {
	return func(l *RunLock) {
		if d > 0 {
			l.staleAfter = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *RunLock) {
		l.now = now
	}
}

func WithPIDCheck(fn func(pid int) bool) Option {
	return func(l *RunLock) {
		l.pidAlive = fn
	}
}

func New(path string, opts ...Option) *RunLock {
	l := &RunLock{
		path:       path,
		staleAfter: domain.DefaultLockStaleAfter,
		now:        time.Now,
		pidAlive:   processAlive,
		pid:        os.Getpid(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *RunLock) Path() string { return l.path }

// Acquire takes the lock without blocking. A lock whose holder is gone or
// older than the staleness threshold is broken once and retried.
func (l *RunLock) Acquire() error {
	if l.flock != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), constants.DirPermission); err != nil {
		return domain.WrapOp("create lock dir", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		fl := flock.New(l.path)
		ok, err := fl.TryLock()
		if err != nil {
			return domain.WrapOp("try lock", err)
		}
		if ok {
			if err := l.writeMetadata(); err != nil {
				fl.Unlock()
				return err
			}
			l.flock = fl
			logger.Debug("run lock acquired", "path", l.path, "pid", l.pid)
			return nil
		}

		meta, err := ReadMetadata(l.path)
		if err != nil || !l.isStale(meta) {
			return &HeldError{Path: l.path, Holder: meta}
		}
		logger.Warn("breaking stale run lock", "path", l.path, "holder_pid", meta.PID, "since", meta.Timestamp)
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return domain.WrapOp("remove stale lock", err)
		}
	}
	return &HeldError{Path: l.path}
}

// Release drops the lock and removes the file when it still names this
// process. Safe to call more than once.
func (l *RunLock) Release() error {
	if l.flock == nil {
		return nil
	}
	if meta, err := ReadMetadata(l.path); err == nil && meta.PID == l.pid {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to remove lock file", "path", l.path, "error", err)
		}
	}
	err := l.flock.Unlock()
	l.flock = nil
	if err != nil {
		return domain.WrapOp("unlock", err)
	}
	logger.Debug("run lock released", "path", l.path)
	return nil
}

func (l *RunLock) isStale(meta Metadata) bool {
	if meta.PID <= 0 || meta.Timestamp.IsZero() {
		return false
	}
	if l.now().Sub(meta.Timestamp) > l.staleAfter {
		return true
	}
	host, _ := os.Hostname()
	if meta.Hostname != "" && meta.Hostname != host {
		return false
	}
	return !l.pidAlive(meta.PID)
}

func (l *RunLock) writeMetadata() error {
	host, _ := os.Hostname()
	data, err := json.Marshal(Metadata{PID: l.pid, Timestamp: l.now().UTC(), Hostname: host})
	if err != nil {
		return domain.WrapOp("marshal lock metadata", err)
	}
	if err := os.WriteFile(l.path, data, constants.FilePermission); err != nil {
		return domain.WrapOp("write lock metadata", err)
	}
	return nil
}

func ReadMetadata(path string) (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("parse lock metadata: %w", err)
	}
	return meta, nil
}

func processAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = p.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, os.ErrPermission)
}
