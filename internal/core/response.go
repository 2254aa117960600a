package core

import (
	"encoding/json"
	"errors"
	"net/http"

	"printbridge/internal/types"
)

// APIResponse is the single response envelope for every endpoint, success or
// failure. Webhook providers only inspect the status code; the body exists
// for humans replaying deliveries from provider dashboards.
type APIResponse struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JSON writes a success envelope with the given status code and result.
func JSON(w http.ResponseWriter, status int, result any) {
	writeEnvelope(w, status, APIResponse{Success: true, Result: result})
}

// Error writes a failure envelope. It inspects the error chain:
//   - a *types.AppError (or anything wrapping one) determines the HTTP
//     status from its code, and its Message becomes the error string;
//   - any other error becomes a 500 with a generic message.
//
// Wrapped internal detail (stack traces, driver errors, secret material)
// never crosses the boundary; only the AppError's own message is exposed.
func Error(w http.ResponseWriter, err error) {
	var appErr *types.AppError
	if errors.As(err, &appErr) {
		writeEnvelope(w, appErr.HTTPStatus(), APIResponse{
			Success: false,
			Error:   appErr.Message,
		})
		return
	}

	writeEnvelope(w, http.StatusInternalServerError, APIResponse{
		Success: false,
		Error:   "an unexpected error occurred",
	})
}

func writeEnvelope(w http.ResponseWriter, status int, resp APIResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		// Best-effort write; if this also fails there is nothing more to do.
		_, _ = w.Write([]byte(`{"success":false,"error":"failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
