package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/lite-lake/dnssync/internal/infrastructure/lock"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

// session loads config, takes the run lock and builds the app before
// calling fn. SIGINT and SIGTERM cancel ctx; the lock is released on every
// return path.
func session(c *Context, op string, fn func(ctx context.Context, app *App, out io.Writer) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, c)
	if err != nil {
		return err
	}
	dryRun := c.IsDryRun()
	ctx = logger.WithRun(ctx, dryRun)
	out := c.output()

	printBanner(out, op, dryRun)
	if dryRun {
		logger.FromContext(ctx).Info("DRY-RUN mode: no changes will be written", "command", op)
	} else {
		logger.FromContext(ctx).Info("WRITE mode: changes will be applied", "command", op)
	}

	runLock := lock.New(cfg.Lock.Path, lock.WithStaleAfter(cfg.Lock.StaleAfter.Std()))
	if err := runLock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := runLock.Release(); err != nil {
			logger.Warn("failed to release run lock", "path", runLock.Path(), "error", err)
		}
	}()

	var prompter *Prompter
	if c.Step {
		prompter = NewPrompter(os.Stdin, os.Stdout)
	}
	app, err := NewApp(ctx, cfg, prompter)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(ctx, app, out)
}

func (c *Context) output() io.Writer {
	if c.Silent {
		return io.Discard
	}
	return os.Stdout
}
