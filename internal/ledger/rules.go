package ledger

import (
	"context"
	"errors"
)

// Proof identifies the kind of external verification a pending mutation
// needs before it may be applied.
type Proof int

const (
	// ProofReceipt requires a settlement receipt accepted by the OCR
	// keyword check.
	ProofReceipt Proof = iota
	// ProofEmail requires possession of the target email, proven via a
	// one-time code.
	ProofEmail
)

// ErrAlreadyApplied is returned when a pending mutation is applied twice.
var ErrAlreadyApplied = errors.New("pending mutation already applied")

// Pending is a deferred destructive mutation. The mutation is captured as a
// value and runs only when Apply is called after the required verification
// succeeded. Dropping a Pending without applying it cancels the mutation;
// nothing re-arms it except the user retrying the original action.
type Pending struct {
	// Proof is the verification the caller must obtain first.
	Proof Proof

	// Email is the address an email proof must be issued against. Empty
	// when the target friend has no address on record yet; the address
	// captured during verification is then backfilled via Apply.
	Email string

	// FriendID is the friend whose email may be backfilled, when relevant.
	FriendID string

	applied bool
	apply   func(ctx context.Context, capturedEmail string) error
}

// Apply executes the deferred mutation. capturedEmail is the address the
// verification flow actually confirmed; it is used to backfill a friend
// record that had no email. Apply is one-shot.
func (p *Pending) Apply(ctx context.Context, capturedEmail string) error {
	if p.applied {
		return ErrAlreadyApplied
	}
	p.applied = true
	return p.apply(ctx, capturedEmail)
}

// RemoveFriend removes a friend. When the friend is not involved in any
// expense the removal happens immediately and the returned Pending is nil.
// An involved friend needs a settlement receipt first: the caller gets a
// Pending with ProofReceipt and applies it once the receipt is accepted.
func (l *Ledger) RemoveFriend(ctx context.Context, id string) (*Pending, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.findFriend(id); !ok {
		return nil, ErrUnknownFriend
	}

	involved := false
	for i := range l.expenses {
		if l.expenses[i].PayerID == id || l.expenses[i].InSplit(id) {
			involved = true
			break
		}
	}

	if !involved {
		l.deleteFriendLocked(id)
		return nil, l.save(ctx)
	}

	return &Pending{
		Proof: ProofReceipt,
		apply: func(ctx context.Context, _ string) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.settleFriendLocked(id)
			l.deleteFriendLocked(id)
			return l.save(ctx)
		},
	}, nil
}

// settleFriendLocked rewrites the expense collection for a verified
// friend removal:
//   - expenses the friend paid for are deleted: their outstanding credit is
//     forgiven, not reassigned
//   - expenses splitting with the friend shrink by the friend's share,
//     computed from the split count before removal
//   - an expense whose split set would become empty is deleted
func (l *Ledger) settleFriendLocked(id string) {
	kept := l.expenses[:0]
	for i := range l.expenses {
		exp := l.expenses[i]
		if exp.PayerID == id {
			continue
		}
		if exp.InSplit(id) {
			share := exp.Amount / float64(len(exp.SplitWithIDs))
			exp.Amount -= share

			split := make([]string, 0, len(exp.SplitWithIDs)-1)
			for _, sid := range exp.SplitWithIDs {
				if sid != id {
					split = append(split, sid)
				}
			}
			if len(split) == 0 {
				continue
			}
			exp.SplitWithIDs = split
		}
		kept = append(kept, exp)
	}
	l.expenses = kept
}

func (l *Ledger) deleteFriendLocked(id string) {
	kept := l.friends[:0]
	for i := range l.friends {
		if l.friends[i].ID != id {
			kept = append(kept, l.friends[i])
		}
	}
	l.friends = kept
}

// RemoveExpense removes an expense. When the payer no longer exists the
// expense is deleted immediately (nil Pending). Otherwise the caller must
// prove possession of the payer's email; an address captured during that
// proof is persisted onto a payer record that was missing one.
func (l *Ledger) RemoveExpense(ctx context.Context, id string) (*Pending, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	exp, ok := l.findExpense(id)
	if !ok {
		return nil, ErrUnknownExpense
	}
	payer, payerExists := l.findFriend(exp.PayerID)
	if !payerExists {
		l.deleteExpenseLocked(id)
		return nil, l.save(ctx)
	}

	return &Pending{
		Proof:    ProofEmail,
		Email:    payer.Email,
		FriendID: payer.ID,
		apply: func(ctx context.Context, capturedEmail string) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			if capturedEmail != "" {
				l.backfillEmailLocked(payer.ID, capturedEmail)
			}
			l.deleteExpenseLocked(id)
			return l.save(ctx)
		},
	}, nil
}

func (l *Ledger) deleteExpenseLocked(id string) {
	kept := l.expenses[:0]
	for i := range l.expenses {
		if l.expenses[i].ID != id {
			kept = append(kept, l.expenses[i])
		}
	}
	l.expenses = kept
}

// backfillEmailLocked fills in an email on a friend that had none.
// An existing address is never overwritten by a captured one.
func (l *Ledger) backfillEmailLocked(friendID, email string) {
	for i := range l.friends {
		if l.friends[i].ID == friendID && l.friends[i].Email == "" {
			l.friends[i].Email = email
			return
		}
	}
}

// Reset clears friends, expenses, and the owner designation atomically.
// When an owner email is set the reset needs an email proof against it;
// with no owner designated it proceeds unconditionally.
func (l *Ledger) Reset(ctx context.Context) (*Pending, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ownerEmail == "" {
		return nil, l.clearLocked(ctx)
	}

	return &Pending{
		Proof: ProofEmail,
		Email: l.ownerEmail,
		apply: func(ctx context.Context, _ string) error {
			l.mu.Lock()
			defer l.mu.Unlock()
			return l.clearLocked(ctx)
		},
	}, nil
}

func (l *Ledger) clearLocked(ctx context.Context) error {
	l.friends = nil
	l.expenses = nil
	l.ownerEmail = ""
	return l.store.Delete(ctx, keyFriends, keyExpenses, keyOwner)
}
