package ledger

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/splitlite/splitlite/internal/calculator"
	"github.com/splitlite/splitlite/internal/models"
)

func TestRemoveFriendUninvolved(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	alice, _ := l.AddFriend(ctx, "Alice", "alice@example.com")
	bob, _ := l.AddFriend(ctx, "Bob", "")
	carol, _ := l.AddFriend(ctx, "Carol", "")
	if _, err := l.AddExpense(ctx, "Dinner", 100, alice.ID, []string{alice.ID, bob.ID}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	pending, err := l.RemoveFriend(ctx, carol.ID)
	if err != nil {
		t.Fatalf("RemoveFriend failed: %v", err)
	}
	if pending != nil {
		t.Fatal("uninvolved friend must be removed immediately")
	}

	if len(l.Friends()) != 2 {
		t.Errorf("friends = %d, want 2", len(l.Friends()))
	}
	if len(l.Expenses()) != 1 {
		t.Errorf("expense collection must be unchanged, got %d", len(l.Expenses()))
	}
}

func TestRemoveFriendInvolvedNeedsReceipt(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	alice, _ := l.AddFriend(ctx, "Alice", "alice@example.com")
	bob, _ := l.AddFriend(ctx, "Bob", "")
	if _, err := l.AddExpense(ctx, "Dinner", 100, alice.ID, []string{alice.ID, bob.ID}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	pending, err := l.RemoveFriend(ctx, bob.ID)
	if err != nil {
		t.Fatalf("RemoveFriend failed: %v", err)
	}
	if pending == nil {
		t.Fatal("involved friend must require verification")
	}
	if pending.Proof != ProofReceipt {
		t.Errorf("proof = %v, want ProofReceipt", pending.Proof)
	}

	// Nothing changed yet: the mutation is deferred.
	if len(l.Friends()) != 2 || len(l.Expenses()) != 1 {
		t.Error("pending removal must not mutate the ledger")
	}

	if err := pending.Apply(ctx, ""); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(l.Friends()) != 1 {
		t.Errorf("friends = %d after apply, want 1", len(l.Friends()))
	}

	// One-shot: a second apply is refused.
	if err := pending.Apply(ctx, ""); !errors.Is(err, ErrAlreadyApplied) {
		t.Errorf("second Apply err = %v, want ErrAlreadyApplied", err)
	}
}

func TestRemoveFriendResplitsExpenses(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	alice, _ := l.AddFriend(ctx, "Alice", "alice@example.com")
	bob, _ := l.AddFriend(ctx, "Bob", "")
	carol, _ := l.AddFriend(ctx, "Carol", "")
	dave, _ := l.AddFriend(ctx, "Dave", "")

	// Bob is a splitter here: 90 across [B,C,D].
	if _, err := l.AddExpense(ctx, "Trip", 90, alice.ID, []string{bob.ID, carol.ID, dave.ID}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	// Bob paid this one: removal forgives it outright.
	if _, err := l.AddExpense(ctx, "Snacks", 30, bob.ID, []string{alice.ID, carol.ID}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	// Bob is the only splitter: expense disappears with him.
	if _, err := l.AddExpense(ctx, "Solo", 15, alice.ID, []string{bob.ID}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	pending, err := l.RemoveFriend(ctx, bob.ID)
	if err != nil {
		t.Fatalf("RemoveFriend failed: %v", err)
	}
	if err := pending.Apply(ctx, ""); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	expenses := l.Expenses()
	if len(expenses) != 1 {
		t.Fatalf("expenses = %d, want 1 (payer-owned and single-splitter gone)", len(expenses))
	}

	trip := expenses[0]
	if trip.Desc != "Trip" {
		t.Fatalf("surviving expense = %q, want Trip", trip.Desc)
	}
	// 90 * (3-1)/3 = 60 across [C,D].
	if math.Abs(trip.Amount-60) > calculator.Epsilon {
		t.Errorf("amount = %v, want 60", trip.Amount)
	}
	want := []string{carol.ID, dave.ID}
	if len(trip.SplitWithIDs) != 2 || trip.SplitWithIDs[0] != want[0] || trip.SplitWithIDs[1] != want[1] {
		t.Errorf("split = %v, want %v", trip.SplitWithIDs, want)
	}

	// Balances still sum to ~0 over the remaining friends.
	balances := calculator.Balances(l.FriendIDs(), expenses)
	var sum float64
	for _, b := range balances {
		sum += b
	}
	if math.Abs(sum) > calculator.Epsilon {
		t.Errorf("balances sum = %v, want ~0", sum)
	}
}

func TestRemoveFriendShareUsesOriginalCount(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	alice, _ := l.AddFriend(ctx, "Alice", "a@example.com")
	bob, _ := l.AddFriend(ctx, "Bob", "")
	carol, _ := l.AddFriend(ctx, "Carol", "")

	// Two expenses both splitting with Bob; each must shrink by its own
	// pre-removal share, not by a count read after the first shrink.
	if _, err := l.AddExpense(ctx, "One", 60, alice.ID, []string{alice.ID, bob.ID, carol.ID}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if _, err := l.AddExpense(ctx, "Two", 40, carol.ID, []string{bob.ID, carol.ID}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	pending, err := l.RemoveFriend(ctx, bob.ID)
	if err != nil {
		t.Fatalf("RemoveFriend failed: %v", err)
	}
	if err := pending.Apply(ctx, ""); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	expenses := l.Expenses()
	if len(expenses) != 2 {
		t.Fatalf("expenses = %d, want 2", len(expenses))
	}
	if math.Abs(expenses[0].Amount-40) > calculator.Epsilon {
		t.Errorf("expense One amount = %v, want 40", expenses[0].Amount)
	}
	if math.Abs(expenses[1].Amount-20) > calculator.Epsilon {
		t.Errorf("expense Two amount = %v, want 20", expenses[1].Amount)
	}
}

func TestRemoveExpenseWithMissingPayer(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	alice, _ := l.AddFriend(ctx, "Alice", "alice@example.com")
	bob, _ := l.AddFriend(ctx, "Bob", "")
	if _, err := l.AddExpense(ctx, "Dinner", 100, bob.ID, []string{alice.ID}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	// Simulate a dangling payer reference: expense kept, payer gone.
	exp := l.Expenses()[0]
	l.mu.Lock()
	l.deleteFriendLocked(bob.ID)
	l.mu.Unlock()

	pending, err := l.RemoveExpense(ctx, exp.ID)
	if err != nil {
		t.Fatalf("RemoveExpense failed: %v", err)
	}
	if pending != nil {
		t.Fatal("expense with missing payer must be removed directly")
	}
	if len(l.Expenses()) != 0 {
		t.Error("expense not deleted")
	}
}

func TestRemoveExpenseRequiresPayerProof(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	alice, _ := l.AddFriend(ctx, "Alice", "alice@example.com")
	bob, _ := l.AddFriend(ctx, "Bob", "")
	exp, err := l.AddExpense(ctx, "Dinner", 100, alice.ID, []string{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	pending, err := l.RemoveExpense(ctx, exp.ID)
	if err != nil {
		t.Fatalf("RemoveExpense failed: %v", err)
	}
	if pending == nil {
		t.Fatal("existing payer must require email proof")
	}
	if pending.Proof != ProofEmail {
		t.Errorf("proof = %v, want ProofEmail", pending.Proof)
	}
	if pending.Email != "alice@example.com" {
		t.Errorf("proof email = %q, want payer email", pending.Email)
	}

	// Dropping the pending leaves the collection unchanged.
	if len(l.Expenses()) != 1 {
		t.Error("pending removal must not mutate the ledger")
	}

	if err := pending.Apply(ctx, ""); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(l.Expenses()) != 0 {
		t.Error("expense not deleted after apply")
	}
}

func TestRemoveExpenseBackfillsCapturedEmail(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	alice, _ := l.AddFriend(ctx, "Alice", "alice@example.com")
	bob, _ := l.AddFriend(ctx, "Bob", "") // no email on record
	exp, err := l.AddExpense(ctx, "Cab", 40, bob.ID, []string{alice.ID, bob.ID})
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	pending, err := l.RemoveExpense(ctx, exp.ID)
	if err != nil {
		t.Fatalf("RemoveExpense failed: %v", err)
	}
	if pending.Email != "" {
		t.Errorf("proof email = %q, want empty for payer without address", pending.Email)
	}

	if err := pending.Apply(ctx, "bob@example.com"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	got, ok := l.Friend(bob.ID)
	if !ok {
		t.Fatal("payer disappeared")
	}
	if got.Email != "bob@example.com" {
		t.Errorf("payer email = %q, want backfilled address", got.Email)
	}
}

func TestResetWithOwnerRequiresProof(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	alice, _ := l.AddFriend(ctx, "Alice", "alice@example.com")
	if _, err := l.AddExpense(ctx, "Dinner", 10, alice.ID, []string{alice.ID}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	pending, err := l.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if pending == nil {
		t.Fatal("reset with an owner must require verification")
	}
	if pending.Proof != ProofEmail || pending.Email != "alice@example.com" {
		t.Errorf("pending = %+v, want email proof against owner", pending)
	}

	if err := pending.Apply(ctx, ""); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(l.Friends()) != 0 || len(l.Expenses()) != 0 || l.OwnerEmail() != "" {
		t.Error("reset must clear friends, expenses, and owner")
	}
}

func TestResetWithoutOwnerIsImmediate(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	// First friend added without an email leaves no owner designated.
	if _, err := l.AddFriend(ctx, "Bob", ""); err != nil {
		t.Fatalf("AddFriend failed: %v", err)
	}

	pending, err := l.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if pending != nil {
		t.Fatal("reset without an owner must proceed unconditionally")
	}
	if len(l.Friends()) != 0 {
		t.Error("ledger not cleared")
	}
}

func TestScenarioThreeWaySplitSettlement(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)

	a, _ := l.AddFriend(ctx, "A", "a@example.com")
	b, _ := l.AddFriend(ctx, "B", "")
	c, _ := l.AddFriend(ctx, "C", "")
	if _, err := l.AddExpense(ctx, "Dinner", 300, a.ID, []string{a.ID, b.ID, c.ID}); err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	balances := calculator.Balances(l.FriendIDs(), l.Expenses())
	txs, err := calculator.Plan(l.FriendIDs(), balances)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	want := map[models.Transaction]bool{
		{From: b.ID, To: a.ID, Amount: 100}: true,
		{From: c.ID, To: a.ID, Amount: 100}: true,
	}
	if len(txs) != 2 {
		t.Fatalf("transactions = %d, want 2", len(txs))
	}
	for _, tx := range txs {
		if !want[tx] {
			t.Errorf("unexpected transaction %+v", tx)
		}
	}
}
