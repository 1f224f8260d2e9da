package service

import (
	"log/slog"
	"net/http"

	"github.com/splitlite/splitlite/internal/metrics"
	"github.com/splitlite/splitlite/internal/middleware"
	"github.com/splitlite/splitlite/internal/verify"
)

type addExpenseRequest struct {
	Desc         string   `json:"desc"`
	Amount       float64  `json:"amount"`
	PayerID      string   `json:"payerId"`
	SplitWithIDs []string `json:"splitWithIds"`
}

// handleAddExpense creates an expense after reference validation.
func (s *Service) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req addExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	expense, err := s.ledger.AddExpense(r.Context(), req.Desc, req.Amount, req.PayerID, req.SplitWithIDs)
	if err != nil {
		slog.Error("AddExpense failed", "error", err)
		writeError(w, err)
		return
	}

	metrics.Mutations.WithLabelValues("add_expense").Inc()
	slog.Info("Expense added",
		"expense_id", expense.ID,
		"amount", expense.Amount,
		"split_count", len(expense.SplitWithIDs),
	)
	writeJSON(w, http.StatusCreated, expense)
}

// handleRemoveExpense deletes an expense. When the payer still exists the
// request must carry a proof token for the payer's email; an address proven
// for a payer that had none on record is persisted onto the friend. An
// expense whose payer is already gone deletes without verification.
func (s *Service) handleRemoveExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	pending, err := s.ledger.RemoveExpense(r.Context(), id)
	if err != nil {
		slog.Error("RemoveExpense failed", "expense_id", id, "error", err)
		writeError(w, err)
		return
	}

	if pending != nil {
		proofEmail := middleware.ProofEmail(r.Context())
		if proofEmail == "" {
			// Pending dropped; the client runs the OTP flow and retries.
			writeJSON(w, http.StatusForbidden, verificationRequired{
				Verification: "email",
				Email:        pending.Email,
			})
			return
		}
		// A payer with an address on record must be verified against it;
		// a payer without one accepts whatever address was just proven.
		if pending.Email != "" && proofEmail != pending.Email {
			slog.Warn("Proof email mismatch", "expense_id", id)
			writeError(w, verify.ErrInvalidToken)
			return
		}
		if err := pending.Apply(r.Context(), proofEmail); err != nil {
			writeError(w, err)
			return
		}
	}

	metrics.Mutations.WithLabelValues("remove_expense").Inc()
	slog.Info("Expense removed", "expense_id", id)
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
