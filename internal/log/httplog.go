package log

import (
	"time"

	"go.uber.org/zap"
)

// HTTPLogEntry represents an HTTP request/response log entry
type HTTPLogEntry struct {
	Method     string
	Path       string
	Status     int
	Duration   time.Duration
	Size       int64
	RemoteAddr string
	UserAgent  string
}

// LogHTTPRequest writes one access log line. 5xx responses are logged at error level.
func LogHTTPRequest(logger *zap.SugaredLogger, e HTTPLogEntry) {
	if logger == nil {
		logger = GetSugaredLogger()
	}

	fields := []interface{}{
		"method", e.Method,
		"path", e.Path,
		"status", e.Status,
		"duration_ms", e.Duration.Milliseconds(),
		"size", e.Size,
		"remote_addr", e.RemoteAddr,
		"user_agent", e.UserAgent,
	}

	if e.Status >= 500 {
		logger.Errorw("http request", fields...)
		return
	}
	logger.Debugw("http request", fields...)
}
