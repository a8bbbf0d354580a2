package shell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
)

func TestRunner_Run(t *testing.T) {
	r := NewRunner()

	stdout, _, err := r.Run(context.Background(), "echo", "reloadzones")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "reloadzones" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunner_RunFailure(t *testing.T) {
	r := NewRunner()

	_, _, err := r.Run(context.Background(), "false")
	if !errors.Is(err, domain.ErrCommandFailed) {
		t.Errorf("expected ErrCommandFailed, got %v", err)
	}
	_, _, err = r.Run(context.Background(), "dnssync-no-such-binary")
	if !errors.Is(err, domain.ErrCommandFailed) {
		t.Errorf("expected ErrCommandFailed for missing binary, got %v", err)
	}
}

func TestRunner_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := NewRunner().Run(ctx, "sleep", "5")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestRunner_Env(t *testing.T) {
	stdout, _, err := NewRunner("DNSSYNC_PROBE=42").Run(context.Background(), "sh", "-c", "echo $DNSSYNC_PROBE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "42" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunner_FileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "example.com.db")
	if err := os.WriteFile(path, []byte("; zone"), 0644); err != nil {
		t.Fatal(err)
	}
	r := NewRunner()

	ok, err := r.FileExists(context.Background(), path)
	if err != nil || !ok {
		t.Errorf("FileExists(present) = %v, %v", ok, err)
	}
	ok, err = r.FileExists(context.Background(), filepath.Join(dir, "missing.db"))
	if err != nil || ok {
		t.Errorf("FileExists(absent) = %v, %v", ok, err)
	}
}
