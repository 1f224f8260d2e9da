package service

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/splitlite/splitlite/internal/metrics"
	"github.com/splitlite/splitlite/internal/ocr"
)

type addFriendRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// handleAddFriend creates a friend. The first friend added designates the
// ledger owner.
func (s *Service) handleAddFriend(w http.ResponseWriter, r *http.Request) {
	var req addFriendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	friend, err := s.ledger.AddFriend(r.Context(), req.Name, req.Email)
	if err != nil {
		slog.Error("AddFriend failed", "error", err)
		writeError(w, err)
		return
	}

	metrics.Mutations.WithLabelValues("add_friend").Inc()
	slog.Info("Friend added", "friend_id", friend.ID, "name", friend.Name)
	writeJSON(w, http.StatusCreated, friend)
}

// handleRemoveFriend removes a friend. A friend involved in any expense
// cannot be removed directly: the response names the receipt verification
// the settle endpoint performs, and no state changes.
func (s *Service) handleRemoveFriend(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	pending, err := s.ledger.RemoveFriend(r.Context(), id)
	if err != nil {
		slog.Error("RemoveFriend failed", "friend_id", id, "error", err)
		writeError(w, err)
		return
	}

	if pending != nil {
		// Dropped here; the settle endpoint re-derives it with the receipt.
		writeJSON(w, http.StatusConflict, verificationRequired{Verification: "receipt"})
		return
	}

	metrics.Mutations.WithLabelValues("remove_friend").Inc()
	slog.Info("Friend removed", "friend_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// settleRejectedResponse reports why a receipt was not accepted, naming the
// keywords that did match so the user can retry with a clearer screenshot.
type settleRejectedResponse struct {
	Error           string   `json:"error"`
	MatchedKeywords []string `json:"matchedKeywords"`
}

// handleSettleFriend accepts a receipt upload as settlement proof and, when
// the extracted text passes the keyword check, applies the deferred friend
// removal: the friend's paid expenses are forgiven and their split shares
// re-split.
func (s *Service) handleSettleFriend(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, errBadBody)
		return
	}
	file, _, err := r.FormFile("receipt")
	if err != nil {
		writeError(w, errBadBody)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		writeError(w, errBadBody)
		return
	}

	text, err := s.extractor.ExtractText(r.Context(), image)
	if err != nil {
		// External collaborator failure: surfaced with its message, the
		// user retries manually.
		slog.Error("Receipt text extraction failed", "friend_id", id, "error", err)
		writeError(w, err)
		return
	}

	matches := ocr.MatchKeywords(text)
	if len(matches) < ocr.MinMatches {
		metrics.Verifications.WithLabelValues("receipt", "rejected").Inc()
		slog.Warn("Receipt rejected", "friend_id", id, "matches", matches)
		writeJSON(w, http.StatusForbidden, settleRejectedResponse{
			Error:           "could not detect clear payment details",
			MatchedKeywords: matches,
		})
		return
	}
	metrics.Verifications.WithLabelValues("receipt", "accepted").Inc()

	pending, err := s.ledger.RemoveFriend(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if pending != nil {
		if err := pending.Apply(r.Context(), ""); err != nil {
			writeError(w, err)
			return
		}
	}

	metrics.Mutations.WithLabelValues("remove_friend").Inc()
	slog.Info("Friend settled and removed", "friend_id", id, "matches", matches)
	writeJSON(w, http.StatusOK, map[string]string{"status": "settled"})
}
