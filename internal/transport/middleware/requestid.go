package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/employee-directory/pkg/logger"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-ID"

// RequestID tags every request with a trace id, taken from the X-Trace-ID
// header when the caller sent one, and stores base.With("traceID", id) as
// the request logger.
func RequestID(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceHeader)
			if traceID == "" {
				traceID = uuid.NewString()
			}

			lg := base
			if lg == nil {
				lg = logger.From(r.Context())
			}

			lg = lg.With("traceID", traceID)
			if reqID := chiMiddleware.GetReqID(r.Context()); reqID != "" {
				lg = lg.With("request_id", reqID)
			}

			// inject into context
			ctx := logger.WithLogger(r.Context(), lg)

			// propagate back to response
			w.Header().Set(TraceHeader, traceID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
