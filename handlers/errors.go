package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/library/service"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders err as the JSON error body. Anything that is not an APIError becomes a 500 whose cause is only logged.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	reqID := middleware.GetReqID(r.Context())
	apiErr, ok := service.AsAPIError(err)
	if !ok {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", reqID),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   service.CodeInternal,
			Message: "Internal server error",
		})
		return
	}
	logger.Info("request rejected",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", reqID),
		zap.Int("status", apiErr.Status),
		zap.String("code", apiErr.Code))
	writeJSON(w, apiErr.Status, errorResponse{
		Error:   apiErr.Code,
		Message: apiErr.Message,
		Fields:  apiErr.Fields,
	})
}

// Recoverer turns a panic into the internal_error response. http.ErrAbortHandler is re-raised so net/http can abort the connection.
func Recoverer(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered", zap.Any("panic", rec), zap.Stack("stack"))
				writeError(w, r, logger, fmt.Errorf("panic: %v", rec))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{
		Error:   "not_found",
		Message: "Route " + r.Method + " " + r.URL.Path + " not found",
	})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{
		Error:   "method_not_allowed",
		Message: "Method " + r.Method + " not allowed on " + r.URL.Path,
	})
}
