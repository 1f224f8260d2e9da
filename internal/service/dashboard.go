package service

import (
	"log/slog"
	"net/http"

	"github.com/splitlite/splitlite/internal/calculator"
	"github.com/splitlite/splitlite/internal/metrics"
	"github.com/splitlite/splitlite/internal/middleware"
	"github.com/splitlite/splitlite/internal/models"
	"github.com/splitlite/splitlite/internal/verify"
)

// transactionView is a settlement transfer with display names resolved.
type transactionView struct {
	From     string  `json:"from"`
	FromName string  `json:"fromName"`
	To       string  `json:"to"`
	ToName   string  `json:"toName"`
	Amount   float64 `json:"amount"`
}

// expenseView is an expense with the payer name resolved. A deleted payer
// renders as "Unknown" instead of failing.
type expenseView struct {
	models.Expense
	PayerName string `json:"payerName"`
}

type ledgerResponse struct {
	Friends      []models.Friend    `json:"friends"`
	Expenses     []expenseView      `json:"expenses"`
	Total        float64            `json:"total"`
	Balances     map[string]float64 `json:"balances"`
	Transactions []transactionView  `json:"transactions"`
	OwnerSet     bool               `json:"ownerSet"`
}

// handleGetLedger returns the full display state: friends, expenses, the
// total, fresh balances, and the settlement plan derived from them.
func (s *Service) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	friends := s.ledger.Friends()
	expenses := s.ledger.Expenses()
	order := s.ledger.FriendIDs()

	names := make(map[string]string, len(friends))
	for _, f := range friends {
		names[f.ID] = f.Name
	}
	nameOf := func(id string) string {
		if name, ok := names[id]; ok {
			return name
		}
		return "Unknown"
	}

	balances := calculator.Balances(order, expenses)
	transactions, err := calculator.Plan(order, balances)
	if err != nil {
		// Balances not summing to zero is a defect, never masked.
		metrics.PlanFailures.Inc()
		slog.Error("Settlement plan invariant breach", "error", err)
		writeError(w, err)
		return
	}

	expViews := make([]expenseView, len(expenses))
	for i, exp := range expenses {
		expViews[i] = expenseView{Expense: exp, PayerName: nameOf(exp.PayerID)}
	}

	txViews := make([]transactionView, len(transactions))
	for i, tx := range transactions {
		txViews[i] = transactionView{
			From:     tx.From,
			FromName: nameOf(tx.From),
			To:       tx.To,
			ToName:   nameOf(tx.To),
			Amount:   tx.Amount,
		}
	}

	if friends == nil {
		friends = []models.Friend{}
	}

	writeJSON(w, http.StatusOK, ledgerResponse{
		Friends:      friends,
		Expenses:     expViews,
		Total:        calculator.Total(expenses),
		Balances:     balances,
		Transactions: txViews,
		OwnerSet:     s.ledger.OwnerEmail() != "",
	})
}

// handleReset clears the whole ledger. With an owner designated the request
// must carry a proof token for the owner's email; with no owner it proceeds
// unconditionally.
func (s *Service) handleReset(w http.ResponseWriter, r *http.Request) {
	pending, err := s.ledger.Reset(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if pending != nil {
		proofEmail := middleware.ProofEmail(r.Context())
		if proofEmail == "" {
			// Pending dropped; the client verifies and retries.
			writeJSON(w, http.StatusForbidden, verificationRequired{
				Verification: "email",
				Email:        pending.Email,
			})
			return
		}
		if proofEmail != pending.Email {
			writeError(w, verify.ErrInvalidToken)
			return
		}
		if err := pending.Apply(r.Context(), proofEmail); err != nil {
			writeError(w, err)
			return
		}
	}

	metrics.Mutations.WithLabelValues("reset").Inc()
	slog.Info("Ledger reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// verificationRequired tells the client which proof a destructive action
// needs before it can be retried.
type verificationRequired struct {
	Verification string `json:"verification"` // "email" or "receipt"
	Email        string `json:"email,omitempty"`
}
