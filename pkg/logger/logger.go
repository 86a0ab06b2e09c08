// Package logger provides structured logging built on zerolog.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"arbitron/pkg/correlation"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with printf-style helpers.
type Logger struct {
	logger zerolog.Logger
}

// New creates a logger writing JSON to stdout at the given level.
// Unknown levels fall back to info.
func New(level string) *Logger {
	zl := zerolog.New(os.Stdout).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &Logger{logger: zl}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(format string, args ...any) {
	l.logger.Debug().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	l.logger.Info().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...any) {
	l.logger.Warn().Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...any) {
	l.logger.Error().Msg(fmt.Sprintf(format, args...))
}

// Fatal logs the error and exits the process.
func (l *Logger) Fatal(err error) {
	l.logger.Fatal().Err(err).Msg(err.Error())
}

// DebugCtx logs at debug level with the correlation ID from ctx, if any.
func (l *Logger) DebugCtx(ctx context.Context, format string, args ...any) {
	l.event(ctx, l.logger.Debug()).Msg(fmt.Sprintf(format, args...))
}

// InfoCtx logs at info level with the correlation ID from ctx, if any.
func (l *Logger) InfoCtx(ctx context.Context, format string, args ...any) {
	l.event(ctx, l.logger.Info()).Msg(fmt.Sprintf(format, args...))
}

// ErrorCtx logs at error level with the correlation ID from ctx, if any.
func (l *Logger) ErrorCtx(ctx context.Context, format string, args ...any) {
	l.event(ctx, l.logger.Error()).Msg(fmt.Sprintf(format, args...))
}

func (l *Logger) event(ctx context.Context, e *zerolog.Event) *zerolog.Event {
	if corrID := correlation.FromContext(ctx); corrID != "" {
		e = e.Str("correlation_id", corrID)
	}
	return e
}
