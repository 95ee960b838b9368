// Package handler adapts the session controller's operations to the
// HTTP surface described in spec.md §6: JSON bodies, a small envelope
// shared by every response, and status codes driven by the controller's
// sentinel errors.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/mhacks/dredd-judging/internal/model"
)

// statusResponse is the envelope every endpoint that has nothing extra
// to report responds with (start, stop, resume, submit).
type statusResponse struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// pairResponse is what GET /pair returns.
type pairResponse struct {
	StatusCode int            `json:"status_code"`
	Message    string         `json:"message"`
	IsStarted  bool           `json:"is_started"`
	Pair       [2]model.Entity `json:"pair,omitempty"`
}

// rankingsResponse is what GET /rankings returns.
type rankingsResponse struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	IsStarted  bool            `json:"is_started"`
	Rankings   []model.Entity  `json:"rankings,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeStatus(w http.ResponseWriter, httpStatus, bodyStatus int, message string) {
	writeJSON(w, httpStatus, statusResponse{StatusCode: bodyStatus, Message: message})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
