// Package ledger holds the authoritative friends/expenses state and the
// mutation policies around it. The ledger is the unit of persistence: every
// mutation writes the full snapshot back through the storage.Store.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/splitlite/splitlite/internal/models"
	"github.com/splitlite/splitlite/internal/storage"
)

// Persistence keys, carried over from the app's original localStorage layout
// so an exported browser snapshot loads unchanged.
const (
	keyFriends  = "splitLite_friends"
	keyExpenses = "splitLite_expenses"
	keyOwner    = "splitLite_owner"
)

var (
	ErrNameRequired   = errors.New("friend name is required")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrInvalidAmount  = errors.New("amount must be a non-negative number")
	ErrUnknownPayer   = errors.New("payer is not a known friend")
	ErrEmptySplit     = errors.New("expense must be split with at least one friend")
	ErrUnknownFriend  = errors.New("friend not found")
	ErrUnknownExpense = errors.New("expense not found")
)

// Ledger is the friends + expenses + owner aggregate. A single mutex
// serializes mutations: the original app had exactly one UI actor, an HTTP
// server needs the lock to preserve that model.
type Ledger struct {
	mu    sync.Mutex
	store storage.Store

	friends    []models.Friend
	expenses   []models.Expense
	ownerEmail string
}

// Load reads the persisted snapshot from the store. Absent keys mean an
// empty ledger, not an error.
func Load(ctx context.Context, store storage.Store) (*Ledger, error) {
	l := &Ledger{store: store}

	if raw, ok, err := store.Get(ctx, keyFriends); err != nil {
		return nil, fmt.Errorf("failed to load friends: %w", err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &l.friends); err != nil {
			return nil, fmt.Errorf("failed to decode friends: %w", err)
		}
	}

	if raw, ok, err := store.Get(ctx, keyExpenses); err != nil {
		return nil, fmt.Errorf("failed to load expenses: %w", err)
	} else if ok {
		if err := json.Unmarshal([]byte(raw), &l.expenses); err != nil {
			return nil, fmt.Errorf("failed to decode expenses: %w", err)
		}
	}

	if raw, ok, err := store.Get(ctx, keyOwner); err != nil {
		return nil, fmt.Errorf("failed to load owner: %w", err)
	} else if ok {
		l.ownerEmail = raw
	}

	return l, nil
}

// save writes the full snapshot back. Callers must hold l.mu.
func (l *Ledger) save(ctx context.Context) error {
	friends, err := json.Marshal(l.friends)
	if err != nil {
		return fmt.Errorf("failed to encode friends: %w", err)
	}
	expenses, err := json.Marshal(l.expenses)
	if err != nil {
		return fmt.Errorf("failed to encode expenses: %w", err)
	}

	if err := l.store.Set(ctx, keyFriends, string(friends)); err != nil {
		return err
	}
	if err := l.store.Set(ctx, keyExpenses, string(expenses)); err != nil {
		return err
	}
	if l.ownerEmail != "" {
		if err := l.store.Set(ctx, keyOwner, l.ownerEmail); err != nil {
			return err
		}
	}
	return nil
}

// ValidEmail reports whether the address passes the app's loose shape check.
func ValidEmail(email string) bool {
	return strings.Contains(email, "@") && strings.Contains(email, ".")
}

// AddFriend creates a friend. The avatar is derived from the name. The
// first friend ever added designates the ledger owner via their email.
func (l *Ledger) AddFriend(ctx context.Context, name, email string) (models.Friend, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Friend{}, ErrNameRequired
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !ValidEmail(email) {
		return models.Friend{}, ErrInvalidEmail
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	friend := models.Friend{
		ID:     uuid.New().String(),
		Name:   name,
		Email:  email,
		Avatar: models.Initials(name),
	}

	// Owner is designated exactly once, by the first friend added.
	if len(l.friends) == 0 && l.ownerEmail == "" {
		l.ownerEmail = email
	}

	l.friends = append(l.friends, friend)
	if err := l.save(ctx); err != nil {
		return models.Friend{}, err
	}
	return friend, nil
}

// AddExpense creates an expense after validating its references.
// Duplicate split members are collapsed; order is preserved.
func (l *Ledger) AddExpense(ctx context.Context, desc string, amount float64, payerID string, splitWithIDs []string) (models.Expense, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.Expense{}, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.findFriend(payerID); !ok {
		return models.Expense{}, ErrUnknownPayer
	}

	seen := make(map[string]bool, len(splitWithIDs))
	var split []string
	for _, id := range splitWithIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := l.findFriend(id); !ok {
			return models.Expense{}, ErrUnknownFriend
		}
		split = append(split, id)
	}
	if len(split) == 0 {
		return models.Expense{}, ErrEmptySplit
	}

	expense := models.Expense{
		ID:           uuid.New().String(),
		Desc:         strings.TrimSpace(desc),
		Amount:       amount,
		PayerID:      payerID,
		SplitWithIDs: split,
		Date:         time.Now().Unix(),
	}

	l.expenses = append(l.expenses, expense)
	if err := l.save(ctx); err != nil {
		return models.Expense{}, err
	}
	return expense, nil
}

// Friends returns a copy of the friend list in insertion order.
func (l *Ledger) Friends() []models.Friend {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.Friend, len(l.friends))
	copy(out, l.friends)
	return out
}

// FriendIDs returns the friend IDs in insertion order. This order is the
// settlement planner's tie-break, so it must stay stable.
func (l *Ledger) FriendIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, len(l.friends))
	for i := range l.friends {
		ids[i] = l.friends[i].ID
	}
	return ids
}

// Expenses returns a deep copy of the expense list in insertion order.
func (l *Ledger) Expenses() []models.Expense {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyExpenses()
}

func (l *Ledger) copyExpenses() []models.Expense {
	out := make([]models.Expense, len(l.expenses))
	for i := range l.expenses {
		out[i] = l.expenses[i]
		out[i].SplitWithIDs = append([]string(nil), l.expenses[i].SplitWithIDs...)
	}
	return out
}

// Friend looks up a friend by ID.
func (l *Ledger) Friend(id string) (models.Friend, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findFriend(id)
}

func (l *Ledger) findFriend(id string) (models.Friend, bool) {
	for i := range l.friends {
		if l.friends[i].ID == id {
			return l.friends[i], true
		}
	}
	return models.Friend{}, false
}

// Expense looks up an expense by ID.
func (l *Ledger) Expense(id string) (models.Expense, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.findExpense(id)
}

func (l *Ledger) findExpense(id string) (models.Expense, bool) {
	for i := range l.expenses {
		if l.expenses[i].ID == id {
			exp := l.expenses[i]
			exp.SplitWithIDs = append([]string(nil), exp.SplitWithIDs...)
			return exp, true
		}
	}
	return models.Expense{}, false
}

// OwnerEmail returns the designated owner email, empty when never set.
func (l *Ledger) OwnerEmail() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ownerEmail
}
