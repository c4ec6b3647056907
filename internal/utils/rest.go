// Package utils holds the JSON response helpers shared by the HTTP
// handlers and the middleware.
package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the standard body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondWithError writes message as a JSON error body with the given
// status code.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithJSON serializes payload with the given status code. The
// status line is committed before encoding starts, so an encoding failure
// surfaces on the response body rather than as a different status.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response: "+err.Error(), http.StatusInternalServerError)
		return err
	}
	return nil
}
