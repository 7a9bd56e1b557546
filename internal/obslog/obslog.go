// Package obslog provides the structured logger used across the
// simulation and optimization engine, wrapping log/slog with
// domain-specific helpers for routes, orders, trades, and workers.
package obslog

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with engine-specific convenience methods.
type Logger struct {
	*slog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level      slog.Level
	Format     string // "json" or "text"
	AddSource  bool
	OutputPath string // empty means stdout
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  slog.LevelInfo,
		Format: "json",
	}
}

// New creates a new structured logger.
func New(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}

	opts := &slog.HandlerOptions{
		Level:     config.Level,
		AddSource: config.AddSource,
	}

	var handler slog.Handler
	output := os.Stdout
	if config.OutputPath != "" {
		file, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			output = file
		}
	}

	if config.Format == "text" {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.Logger.With(args...)}
}

// WithError returns a logger with an error field.
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return &Logger{Logger: l.Logger.With("error", err.Error())}
}

// Component returns a logger scoped to a named component.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.Logger.With("component", name)}
}

// Route returns a logger scoped to a route.
func (l *Logger) Route(routeID string) *Logger {
	return &Logger{Logger: l.Logger.With("route", routeID)}
}

// Worker returns a logger scoped to an optimization worker.
func (l *Logger) Worker(workerID string) *Logger {
	return &Logger{Logger: l.Logger.With("worker", workerID)}
}

// Trade logs trade-related information.
func (l *Logger) Trade(fields map[string]any) {
	l.logFields(slog.LevelInfo, "trade", fields)
}

// Order logs order-related information.
func (l *Logger) Order(fields map[string]any) {
	l.logFields(slog.LevelInfo, "order", fields)
}

// Liquidation logs a forced position liquidation.
func (l *Logger) Liquidation(fields map[string]any) {
	l.logFields(slog.LevelWarn, "liquidation", fields)
}

// Skip logs a simulator skip-ahead decision at debug level; callers
// only reach for this in hot-path diagnostics, never in steady-state
// output.
func (l *Logger) Skip(fields map[string]any) {
	l.logFields(slog.LevelDebug, "skip_ahead", fields)
}

func (l *Logger) logFields(level slog.Level, msg string, fields map[string]any) {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	l.Logger.Log(context.Background(), level, msg, args...)
}

var defaultLogger = New(DefaultConfig())

// SetDefault sets the default global logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Default returns the default global logger.
func Default() *Logger { return defaultLogger }

// Component returns a component logger from the default logger.
func Component(name string) *Logger { return defaultLogger.Component(name) }

// WithError returns a logger with an error field from the default logger.
func WithError(err error) *Logger { return defaultLogger.WithError(err) }

// Info logs an info message on the default logger.
func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

// Warn logs a warning message on the default logger.
func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

// Error logs an error message on the default logger.
func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

// Debug logs a debug message on the default logger.
func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }
