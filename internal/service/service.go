// Package service exposes the ledger over a JSON HTTP API. Handlers follow
// the flow of the original app: every mutation goes through the ledger's
// rules, and the dashboard view recomputes balances and the settlement plan
// from the full expense collection on every read.
package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/splitlite/splitlite/internal/ledger"
	"github.com/splitlite/splitlite/internal/ocr"
	"github.com/splitlite/splitlite/internal/verify"
)

// Service wires the ledger to its external collaborators: the OTP
// verification service and the receipt text extractor.
type Service struct {
	ledger    *ledger.Ledger
	verifier  *verify.Service
	extractor ocr.Extractor
}

// NewService creates the API service.
func NewService(l *ledger.Ledger, verifier *verify.Service, extractor ocr.Extractor) *Service {
	return &Service{
		ledger:    l,
		verifier:  verifier,
		extractor: extractor,
	}
}

// Register attaches all API routes to the mux.
func (s *Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/ledger", s.handleGetLedger)
	mux.HandleFunc("POST /api/friends", s.handleAddFriend)
	mux.HandleFunc("DELETE /api/friends/{id}", s.handleRemoveFriend)
	mux.HandleFunc("POST /api/friends/{id}/settle", s.handleSettleFriend)
	mux.HandleFunc("POST /api/expenses", s.handleAddExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleRemoveExpense)
	mux.HandleFunc("POST /api/reset", s.handleReset)
	mux.HandleFunc("POST /api/verify/begin", s.handleVerifyBegin)
	mux.HandleFunc("POST /api/verify/confirm", s.handleVerifyConfirm)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// errBadBody marks an undecodable request body.
var errBadBody = errors.New("invalid request body")

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps known errors to HTTP statuses. Validation failures are
// 400, unknown references 404, verification failures 403, everything else
// 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ledger.ErrNameRequired),
		errors.Is(err, ledger.ErrInvalidEmail),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrUnknownPayer),
		errors.Is(err, ledger.ErrEmptySplit),
		errors.Is(err, verify.ErrInvalidEmail),
		errors.Is(err, errBadBody):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnknownFriend),
		errors.Is(err, ledger.ErrUnknownExpense),
		errors.Is(err, verify.ErrUnknownChallenge):
		status = http.StatusNotFound
	case errors.Is(err, verify.ErrCodeMismatch),
		errors.Is(err, verify.ErrInvalidToken),
		errors.Is(err, verify.ErrMissingToken):
		status = http.StatusForbidden
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeJSON decodes a request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadBody
	}
	return nil
}
