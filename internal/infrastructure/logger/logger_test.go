package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DNSSYNC_DEBUG", "true")
	t.Setenv("DNSSYNC_LOG_FORMAT", "json")

	cfg := ConfigFromEnv()
	if cfg.Level != slog.LevelDebug || !cfg.AddSource {
		t.Errorf("debug not applied: %+v", cfg)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %q", cfg.Format)
	}
}

func TestWithRun_TagsLines(t *testing.T) {
	var buf bytes.Buffer
	Init(&Config{Level: slog.LevelInfo, Format: "text", Output: &buf})
	defer Init(DefaultConfig())

	ctx := WithRun(context.Background(), true)
	FromContext(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "mode=dry-run") || !strings.Contains(out, "run_id=") {
		t.Errorf("run fields missing: %s", out)
	}
}

func TestTimedOperation_NotifiesObserver(t *testing.T) {
	var gotOp string
	var gotErr error
	SetOperationObserver(func(op string, err error, d time.Duration) {
		gotOp, gotErr = op, err
	})
	defer SetOperationObserver(nil)

	boom := errors.New("boom")
	ctx := ContextWithLogger(context.Background(), Discard())
	err := TimedOperation(ctx, "tracking.save", func() error { return boom })

	if !errors.Is(err, boom) {
		t.Errorf("TimedOperation() error = %v", err)
	}
	if gotOp != "tracking.save" || !errors.Is(gotErr, boom) {
		t.Errorf("observer got %q, %v", gotOp, gotErr)
	}
}
