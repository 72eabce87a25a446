// Package httpx holds the response helpers shared by the JSON handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"Solaire/internal/repo"
	"Solaire/internal/validate"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Decode reads a JSON body and answers 400 itself on failure.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return false
	}
	return true
}

func ValidationFailed(w http.ResponseWriter, errs validate.FieldErrors) {
	JSON(w, http.StatusBadRequest, map[string]any{"errors": errs})
}

// ValidID rejects ids that are not UUIDs before they reach the database.
func ValidID(w http.ResponseWriter, id string) bool {
	if _, err := uuid.Parse(id); err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return false
	}
	return true
}

// Fail maps repository errors to a status and logs unexpected ones.
func Fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	var fe validate.FieldErrors
	switch {
	case errors.Is(err, repo.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, repo.ErrConflict):
		http.Error(w, "Already exists", http.StatusConflict)
	case errors.As(err, &fe):
		ValidationFailed(w, fe)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("request failed")
		http.Error(w, "DB error", http.StatusInternalServerError)
	}
}
