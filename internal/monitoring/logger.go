package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog with structured logging helpers for the bid service.
type Logger struct {
	*slog.Logger
}

func NewLogger() *Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if os.Getenv("DEBUG") == "true" {
		opts.Level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	logger := slog.New(handler)

	return &Logger{Logger: logger}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, clientIP string, statusCode int, duration time.Duration) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("client_ip", clientIP),
		slog.Int("status_code", statusCode),
		slog.Duration("duration", duration),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

// EvaluationLogger logs a completed bid evaluation run
func (l *Logger) EvaluationLogger(projectID string, bidCount int, winner string, duration time.Duration, cached bool) {
	l.Info("evaluation_completed",
		slog.String("project_id", projectID),
		slog.Int("bid_count", bidCount),
		slog.String("winner", winner),
		slog.Duration("duration", duration),
		slog.Bool("cached", cached),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

// EvaluationErrorLogger logs evaluation failures with their category
func (l *Logger) EvaluationErrorLogger(projectID, category string, err error) {
	l.Error("evaluation_failed",
		slog.String("project_id", projectID),
		slog.String("category", category),
		slog.String("error", err.Error()),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool) {
	l.Debug("cache_operation",
		slog.String("operation", operation),
		slog.String("key", key),
		slog.Bool("hit", hit),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

// DatabaseLogger logs database operations
func (l *Logger) DatabaseLogger(operation string, duration time.Duration, err error) {
	if err != nil {
		l.Error("database_operation",
			slog.String("operation", operation),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		return
	}
	l.Debug("database_operation",
		slog.String("operation", operation),
		slog.Duration("duration", duration),
	)
}

// RateLimitLogger logs rate limiting decisions
func (l *Logger) RateLimitLogger(identifier string, allowed bool, remaining int) {
	l.Debug("rate_limit_check",
		slog.String("identifier", identifier),
		slog.Bool("allowed", allowed),
		slog.Int("remaining", remaining),
	)
}
