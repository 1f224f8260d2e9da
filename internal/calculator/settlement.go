package calculator

import (
	"fmt"
	"math"
	"sort"

	"github.com/splitlite/splitlite/internal/models"
)

// Plan turns net balances into an ordered list of settling transactions
// using greedy two-pointer matching. Replaying the transactions drives
// every balance to within Epsilon of zero.
//
// order fixes the tie-break: debtors and creditors are collected in this
// order (the ledger's friend insertion order) and sorted stably, so equal
// balances keep their relative position and the plan is deterministic.
//
// A residual imbalance beyond Epsilon after the walk means the input did
// not sum to zero. That is an invariant breach in the caller's data, so it
// is returned as an error rather than dropped.
func Plan(order []string, balances map[string]float64) ([]models.Transaction, error) {
	type entry struct {
		id     string
		amount float64
	}

	var debtors, creditors []entry
	for _, id := range order {
		bal, known := balances[id]
		if !known {
			continue
		}
		switch {
		case bal < -Epsilon:
			debtors = append(debtors, entry{id: id, amount: bal})
		case bal > Epsilon:
			creditors = append(creditors, entry{id: id, amount: bal})
		}
	}

	// Most negative debtor first, largest creditor first.
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount < debtors[j].amount })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })

	var transactions []models.Transaction
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := math.Min(-debtor.amount, creditor.amount)
		transactions = append(transactions, models.Transaction{
			From:   debtor.id,
			To:     creditor.id,
			Amount: amount,
		})

		debtor.amount += amount
		creditor.amount -= amount

		if math.Abs(debtor.amount) < Epsilon {
			i++
		}
		if creditor.amount < Epsilon {
			j++
		}
	}

	// Both cursors should exhaust together when balances summed to ~0.
	for ; i < len(debtors); i++ {
		if math.Abs(debtors[i].amount) > Epsilon {
			return nil, fmt.Errorf("settlement left unmatched debt of %.2f for %s: balances do not sum to zero", -debtors[i].amount, debtors[i].id)
		}
	}
	for ; j < len(creditors); j++ {
		if creditors[j].amount > Epsilon {
			return nil, fmt.Errorf("settlement left unmatched credit of %.2f for %s: balances do not sum to zero", creditors[j].amount, creditors[j].id)
		}
	}

	return transactions, nil
}
