package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// Stable error codes returned in the error envelope. Clients match on
// the code, not the message.
const (
	CodeValidation   = "validation_error"
	CodeAuth         = "auth_error"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict_error"
	CodeInvalidState = "invalid_state"
	CodeInternal     = "internal_error"
)

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondJSON writes a JSON response with the given status code
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("❌ Failed to encode JSON response: %v", err)
		}
	}
}

// RespondError writes a JSON error envelope with a stable error code
func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondJSON(w, status, errorEnvelope{
		Success: false,
		Error:   code,
		Message: message,
	})
}
