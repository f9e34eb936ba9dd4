package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// log prefers the request-scoped logger carrying the trace id.
func (h *BaseHandler) log(r *http.Request) *slog.Logger {
	if r != nil {
		if lg := logger.From(r.Context()); lg != nil {
			return lg
		}
	}
	return h.Logger
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an AppError using its own status code
func (h *BaseHandler) WriteError(w http.ResponseWriter, r *http.Request, appErr *internal.AppError) {
	lg := h.log(r)
	if appErr.StatusCode >= http.StatusInternalServerError {
		lg.Error("http error", "status", appErr.StatusCode, "code", appErr.Code, "error", appErr.GetDetailedMessage())
	} else {
		lg.Warn("http error", "status", appErr.StatusCode, "code", appErr.Code, "message", appErr.Message)
	}
	status, body := appErr.ToHTTPResponse()
	h.WriteJSON(w, status, body)
}

// HandleServiceError maps service errors to responses. Anything that is not
// an AppError is reported as a generic internal error.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		h.WriteError(w, r, appErr)
		return
	}
	h.WriteError(w, r, internal.NewInternalError("an unexpected error occurred", err))
}

// WriteAttachment sends body as a downloadable file
func (h *BaseHandler) WriteAttachment(w http.ResponseWriter, contentType, disposition string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.Logger.Error("failed to write attachment", "error", err)
	}
}
