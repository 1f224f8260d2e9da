package service

import (
	"log/slog"
	"net/http"

	"github.com/splitlite/splitlite/internal/metrics"
)

type verifyBeginRequest struct {
	Email string `json:"email"`
}

type verifyBeginResponse struct {
	ChallengeID string `json:"challengeId"`
}

// handleVerifyBegin sends a one-time code to the email and returns the
// challenge to confirm against.
func (s *Service) handleVerifyBegin(w http.ResponseWriter, r *http.Request) {
	var req verifyBeginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := s.verifier.Begin(r.Context(), req.Email)
	if err != nil {
		slog.Error("Verification begin failed", "error", err)
		writeError(w, err)
		return
	}

	slog.Info("Verification code sent", "challenge_id", id)
	writeJSON(w, http.StatusOK, verifyBeginResponse{ChallengeID: id})
}

type verifyConfirmRequest struct {
	ChallengeID string `json:"challengeId"`
	Code        string `json:"code"`
}

type verifyConfirmResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// handleVerifyConfirm checks the code and returns the proof token the
// destructive endpoints require. A wrong code keeps the challenge alive
// for a retry.
func (s *Service) handleVerifyConfirm(w http.ResponseWriter, r *http.Request) {
	var req verifyConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, email, err := s.verifier.Confirm(req.ChallengeID, req.Code)
	if err != nil {
		metrics.Verifications.WithLabelValues("otp", "failed").Inc()
		slog.Warn("Verification confirm failed", "challenge_id", req.ChallengeID, "error", err)
		writeError(w, err)
		return
	}

	metrics.Verifications.WithLabelValues("otp", "verified").Inc()
	slog.Info("Identity verified", "challenge_id", req.ChallengeID)
	writeJSON(w, http.StatusOK, verifyConfirmResponse{Token: token, Email: email})
}
