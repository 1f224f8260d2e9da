// Package models defines the core domain types for SplitLite.
//
// The ledger aggregate is Friends + Expenses + the owner designation.
// Balances and settlement transactions are ephemeral values derived from
// the expense collection; only friends, expenses, and the owner email are
// persisted.
//
// Relationships use ID strings instead of pointers to avoid circular
// references and to keep the persisted JSON stable.
package models
