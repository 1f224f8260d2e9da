package models

// Transaction is one proposed settling transfer: From pays To the Amount.
// Transactions are derived from balances on demand and never persisted.
type Transaction struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}
