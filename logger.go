package quantfit

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with quantfit-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithAlgorithm adds an algorithm field to the logger.
func (l *Logger) WithAlgorithm(algorithm string) *Logger {
	return &Logger{
		Logger: l.Logger.With("algorithm", algorithm),
	}
}

// WithNBits adds the quantization bit width to the logger.
func (l *Logger) WithNBits(nBits int) *Logger {
	return &Logger{
		Logger: l.Logger.With("n_bits", nBits),
	}
}

// LogFit logs a fit operation.
func (l *Logger) LogFit(ctx context.Context, algorithm string, samples, features, maxBits int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fit failed",
			"algorithm", algorithm,
			"samples", samples,
			"features", features,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "fit completed",
			"algorithm", algorithm,
			"samples", samples,
			"features", features,
			"max_bit_width", maxBits,
		)
	}
}

// LogPredict logs a predict operation.
func (l *Logger) LogPredict(ctx context.Context, samples int, encrypted bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "predict failed",
			"samples", samples,
			"encrypted", encrypted,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "predict completed",
			"samples", samples,
			"encrypted", encrypted,
		)
	}
}
