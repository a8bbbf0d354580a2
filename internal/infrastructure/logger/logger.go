package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type Logger struct {
	*slog.Logger
}

var (
	mu            sync.RWMutex
	defaultLogger *Logger
)

type Config struct {
	Level     slog.Level
	Format    string
	Output    io.Writer
	AddSource bool
}

func DefaultConfig() *Config {
	return &Config{
		Level:     slog.LevelInfo,
		Format:    "text",
		Output:    os.Stderr,
		AddSource: false,
	}
}

// ConfigFromEnv reads DNSSYNC_DEBUG and DNSSYNC_LOG_FORMAT.
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if isTruthy(os.Getenv("DNSSYNC_DEBUG")) {
		cfg.Level = slog.LevelDebug
		cfg.AddSource = true
	}
	if format := os.Getenv("DNSSYNC_LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	return cfg
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Init replaces the process logger. It may be called again once flags and
// config have been read.
func Init(cfg *Config) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	l := &Logger{slog.New(handler)}
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
	slog.SetDefault(l.Logger)
}

func L() *Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		Init(DefaultConfig())
		return L()
	}
	return l
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l
}

func Debug(msg string, args ...any) { L().Debug(msg, args...) }
func Info(msg string, args ...any)  { L().Info(msg, args...) }
func Warn(msg string, args ...any)  { L().Warn(msg, args...) }
func Error(msg string, args ...any) { L().Error(msg, args...) }

func WithFields(fields ...any) *Logger {
	return L().With(fields...)
}

// Discard is a logger that drops everything; tests use it to keep output quiet.
func Discard() *Logger {
	return &Logger{slog.New(slog.NewTextHandler(io.Discard, nil))}
}
