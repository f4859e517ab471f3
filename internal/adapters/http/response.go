package http

import (
	"context"
	"encoding/json"
	"net/http"
)

// errorBody is the failure envelope every endpoint shares.
type errorBody struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON marks every API response no-store. Bodies carry download tokens and
// purchase history that must not sit in shared caches.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		httpLogger().Warn("response encode failed", "operation", "write_json", "outcome", "failure", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{"status": "success", "data": data})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{"status": "success", "message": message})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorBody{Status: "error", Code: code, Message: message})
}

// writeMappedError translates a service error into its status and public message.
func writeMappedError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	status, code, msg := mapDomainError(err)
	logRequestFailure(ctx, operation, status, code, msg, err)
	writeError(w, status, code, msg)
}

// writeValidationError rejects a request body that failed to decode.
func writeValidationError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	const code = "VALIDATION_ERROR"
	logRequestFailure(ctx, operation, http.StatusBadRequest, code, err.Error(), err)
	writeError(w, http.StatusBadRequest, code, err.Error())
}
