package handlers

import (
	"encoding/json"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/rs/zerolog/log"
)

// respondJSON writes v as the response body with the given status.
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response body")
	}
}

// respondError writes a {"error": message} body with the given status.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondValidationError writes a 400 response. Field-level failures
// marshal as a field-to-message object; anything else gets the generic
// error shape.
func respondValidationError(w http.ResponseWriter, err error) {
	if fieldErrors, ok := err.(validation.Errors); ok {
		respondJSON(w, http.StatusBadRequest, fieldErrors)
		return
	}
	respondError(w, http.StatusBadRequest, err.Error())
}
