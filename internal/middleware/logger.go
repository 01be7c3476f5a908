package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-turns/internal/logger"
)

// RequestIDHeader carries the request ID back to the client. An incoming
// value is reused so IDs can be correlated across services.
const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logger logs every request through slog.Default, at a level chosen by the
// response status.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log := logger.WithRequestID(slog.Default(), requestID)
		fields := []any{
			"status", rec.status,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"latency", time.Since(start),
		}

		switch {
		case rec.status >= http.StatusInternalServerError:
			log.Error("Request handled", fields...)
		case rec.status >= http.StatusBadRequest:
			log.Warn("Request handled", fields...)
		default:
			log.Info("Request handled", fields...)
		}
	})
}
