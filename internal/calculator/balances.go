// Package calculator computes balances and settlement plans from the
// expense collection. All functions are pure: they read their inputs and
// produce fresh values, so callers recompute after every mutation instead
// of maintaining an incremental cache.
package calculator

import "github.com/splitlite/splitlite/internal/models"

// Epsilon is the rounding tolerance for balance comparisons. Balances
// within this band of zero are considered settled.
const Epsilon = 0.01

// Balances computes the net balance for every known friend.
// Positive = is owed money, negative = owes money.
//
// For each expense the full amount is credited to the payer and each
// splitter is debited an even share. IDs that are not in friendIDs
// (removed friends still referenced by an old expense) are silently
// skipped on both sides, so the result only ever contains known friends.
func Balances(friendIDs []string, expenses []models.Expense) map[string]float64 {
	balances := make(map[string]float64, len(friendIDs))
	for _, id := range friendIDs {
		balances[id] = 0
	}

	for i := range expenses {
		exp := &expenses[i]
		if len(exp.SplitWithIDs) == 0 {
			continue
		}
		share := exp.Amount / float64(len(exp.SplitWithIDs))

		if _, known := balances[exp.PayerID]; known {
			balances[exp.PayerID] += exp.Amount
		}
		for _, id := range exp.SplitWithIDs {
			if _, known := balances[id]; known {
				balances[id] -= share
			}
		}
	}

	return balances
}

// Total sums all expense amounts. Companion reporting value for the
// dashboard, independent of who owes whom.
func Total(expenses []models.Expense) float64 {
	var total float64
	for i := range expenses {
		total += expenses[i].Amount
	}
	return total
}
