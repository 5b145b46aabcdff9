// Package observability provides logging, metrics, and tracing.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the client.
var GlobalLogger *Logger

var level = new(slog.LevelVar)

func init() {
	// Stderr keeps CLI output on stdout clean.
	GlobalLogger = NewLogger(os.Stderr)
}

// NewLogger builds a JSON logger writing to w at the shared level.
func NewLogger(w io.Writer) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// SetLevel changes the level of every logger built by NewLogger.
func SetLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

// LogContextKey is a type for context keys used by the logging package.
type LogContextKey string

// Context keys for logging
const (
	CorrelationID LogContextKey = "correlation_id"
)

// GenerateCorrelationID creates a new unique correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// WithCorrelationID returns a new context with the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CorrelationID, id)
}

// ExtractCorrelationID retrieves the correlation ID from the context.
func ExtractCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(CorrelationID).(string); ok {
		return id
	}
	return ""
}

// EnsureCorrelationID returns ctx with a correlation ID, generating one if absent.
func EnsureCorrelationID(ctx context.Context) (context.Context, string) {
	if id := ExtractCorrelationID(ctx); id != "" {
		return ctx, id
	}
	id := GenerateCorrelationID()
	return WithCorrelationID(ctx, id), id
}

// APILogger provides structured logging for outgoing API requests.
type APILogger struct {
	logger *Logger
}

// NewAPILogger creates an APILogger on the given logger, or the global one when nil.
func NewAPILogger(l *Logger) *APILogger {
	if l == nil {
		l = GlobalLogger
	}
	return &APILogger{logger: l}
}

// LogRequest logs an outgoing request.
func (l *APILogger) LogRequest(ctx context.Context, method, url string) {
	l.logger.DebugContext(ctx, "api request",
		slog.String("method", method),
		slog.String("url", url),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogResponse logs a completed request.
func (l *APILogger) LogResponse(ctx context.Context, method, url string, status int, elapsed time.Duration) {
	lvl := slog.LevelInfo
	if status >= 400 {
		lvl = slog.LevelWarn
	}
	l.logger.Log(ctx, lvl, "api response",
		slog.String("method", method),
		slog.String("url", url),
		slog.Int("status", status),
		slog.Duration("elapsed", elapsed),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}

// LogError logs a request that produced no response. traceID links the line to its span
// when tracing is on.
func (l *APILogger) LogError(ctx context.Context, method, url, traceID string, err error) {
	attrs := []any{
		slog.String("method", method),
		slog.String("url", url),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	if traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}
	l.logger.ErrorContext(ctx, "api error", attrs...)
}

// StoreLogger provides structured logging for store actions.
type StoreLogger struct {
	slice  string
	logger *Logger
}

// NewStoreLogger creates a StoreLogger for the given store slice.
func NewStoreLogger(slice string) *StoreLogger {
	return &StoreLogger{
		slice:  slice,
		logger: GlobalLogger,
	}
}

// LogAction logs a completed store action.
func (l *StoreLogger) LogAction(ctx context.Context, action string, fields map[string]interface{}) {
	attrs := []any{
		slog.String("slice", l.slice),
		slog.String("action", action),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.DebugContext(ctx, "store action", attrs...)
}

// LogRollback logs an optimistic update that was reverted.
func (l *StoreLogger) LogRollback(ctx context.Context, action string, err error, fields map[string]interface{}) {
	attrs := []any{
		slog.String("slice", l.slice),
		slog.String("action", action),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	}
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.logger.WarnContext(ctx, "optimistic update reverted", attrs...)
}

// LogError logs a failed store action.
func (l *StoreLogger) LogError(ctx context.Context, action string, err error) {
	l.logger.ErrorContext(ctx, "store action failed",
		slog.String("slice", l.slice),
		slog.String("action", action),
		slog.String("error", err.Error()),
		slog.String("correlation_id", ExtractCorrelationID(ctx)),
	)
}
