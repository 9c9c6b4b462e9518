package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"billflow/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONStatus writes a JSON response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleError maps domain errors onto HTTP statuses. Validation problems are
// 400, missing records 404, state conflicts 409, and everything else 500 with
// the detail kept out of the response body.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *core.ValidationError
	var nfErr *core.NotFoundError
	var cErr *core.StateConflictError
	switch {
	case errors.As(err, &vErr):
		writeError(w, r, vErr.Error(), "BAD_REQUEST", http.StatusBadRequest)
	case errors.As(err, &nfErr):
		writeError(w, r, nfErr.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.As(err, &cErr):
		writeError(w, r, cErr.Error(), "CONFLICT", http.StatusConflict)
	default:
		log.Error().Err(err).
			Str("request_id", requestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
