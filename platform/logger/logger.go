// Package logger provides structured logging infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

// Logger wraps slog.Logger for structured logging
type Logger struct {
	*slog.Logger
}

// FileConfig controls optional rotating file output.
type FileConfig interface {
	GetLogFile() string
	GetLogMaxSizeMB() int
	GetLogMaxBackups() int
}

// New creates a new logger based on environment. Development gets a
// debug-level text handler, everything else JSON at info level.
func New(env string) *Logger {
	return newWithWriter(env, os.Stdout)
}

// NewWithFile behaves like New but also writes to a size-rotated log file
// when the config names one.
func NewWithFile(env string, cfg FileConfig) *Logger {
	if cfg == nil || strings.TrimSpace(cfg.GetLogFile()) == "" {
		return New(env)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.GetLogFile(),
		MaxSize:    cfg.GetLogMaxSizeMB(),
		MaxBackups: cfg.GetLogMaxBackups(),
		Compress:   true,
	}
	return newWithWriter(env, io.MultiWriter(os.Stdout, rotator))
}

func newWithWriter(env string, w io.Writer) *Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if strings.EqualFold(env, "development") {
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// WithContext returns a logger with request and user ids taken from ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	newLogger := l
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("request_id", requestID))}
	}
	if userID, ok := ctx.Value(UserIDKey).(string); ok && userID != "" {
		newLogger = &Logger{Logger: newLogger.With(slog.String("user_id", userID))}
	}
	return newLogger
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError logs an unexpected error surfaced by a handler.
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// AuthEvent logs authentication events
func (l *Logger) AuthEvent(event, email string, success bool, reason string) {
	if success {
		l.Info("auth_event",
			slog.String("event", event),
			slog.String("email", email),
			slog.Bool("success", success),
		)
		return
	}
	l.Warn("auth_event",
		slog.String("event", event),
		slog.String("email", email),
		slog.Bool("success", success),
		slog.String("reason", reason),
	)
}

// DatabaseError logs database errors
func (l *Logger) DatabaseError(operation string, err error) {
	l.Error("database_error",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

// RateLimitExceeded logs rate limit events
func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}

// LeadAction logs a committed lead mutation.
func (l *Logger) LeadAction(leadID, action, actorID string) {
	l.Info("lead_action",
		slog.String("lead_id", leadID),
		slog.String("action", action),
		slog.String("actor_id", actorID),
	)
}

// AuditWriteFailed logs a failed audit mirror write. These never reach the caller.
func (l *Logger) AuditWriteFailed(leadID, action string, err error) {
	l.Error("audit_write_failed",
		slog.String("lead_id", leadID),
		slog.String("action", action),
		slog.String("error", err.Error()),
	)
}

// CollaboratorFailed logs an external dependency failure that was recovered locally.
func (l *Logger) CollaboratorFailed(collaborator string, err error) {
	l.Warn("collaborator_failed",
		slog.String("collaborator", collaborator),
		slog.String("error", err.Error()),
	)
}
