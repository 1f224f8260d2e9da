package models

// Expense represents a shared cost paid by one friend and split evenly
// among a set of friends.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// Desc is the free-text description (e.g., "Dinner", "Cab").
	Desc string `json:"desc"`

	// Amount is the total cost. Non-negative.
	Amount float64 `json:"amount"`

	// PayerID references the friend who paid. The expense refers to the
	// friend but does not own it; the payer may have been removed since.
	PayerID string `json:"payerId"`

	// SplitWithIDs are the friends the amount is divided evenly among.
	// Never empty while the expense exists: a mutation that would empty it
	// deletes the expense instead.
	SplitWithIDs []string `json:"splitWithIds"`

	// Date is the Unix timestamp when the expense was created.
	Date int64 `json:"date"`
}

// Share returns the per-person share of the expense. Zero when the split
// set is empty (which only happens on an expense mid-deletion).
func (e *Expense) Share() float64 {
	if len(e.SplitWithIDs) == 0 {
		return 0
	}
	return e.Amount / float64(len(e.SplitWithIDs))
}

// InSplit reports whether the friend is part of the split set.
func (e *Expense) InSplit(friendID string) bool {
	for _, id := range e.SplitWithIDs {
		if id == friendID {
			return true
		}
	}
	return false
}
