package middlewares

import (
	"net/http"
	"time"

	"processmate/processmate/utils/logging"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const TraceIDHeader = "X-Trace-Id"

// TraceID tags every request with a trace id, reusing a well-formed incoming
// X-Trace-Id header.
func TraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get(TraceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}
		w.Header().Set(TraceIDHeader, traceID)
		next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), traceID)))
	})
}

// RequestLogger writes one line per request to the request log. The wrapped
// writer still implements http.Flusher, so streaming handlers keep working.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logging.RequestLogger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("trace_id", logging.TraceIDFromContext(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
