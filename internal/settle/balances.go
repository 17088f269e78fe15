// Package settle computes per-member balances for a trip and produces a
// near-minimal set of peer-to-peer transfers that clears them.
//
// The package is pure: it reads an in-memory snapshot of members, expenses
// and recorded payments, performs no I/O, and holds no state between calls.
// All arithmetic uses decimal.Decimal so cent-level drift never accumulates
// across many expenses.
package settle

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// tolerance is the residual below which a balance counts as settled
// (one cent).
var tolerance = decimal.New(1, -2)

// Validation errors for malformed snapshots. Wrapped with the offending
// expense or payment ID, so check with errors.Is.
var (
	ErrUnknownMember     = errors.New("reference to unknown member")
	ErrEmptySplit        = errors.New("expense has no shares")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrNegativeShare     = errors.New("share amount must not be negative")
)

// Member is a trip participant. ID is opaque to the computation;
// Name is carried through for display only.
type Member struct {
	ID   string
	Name string
}

// Share is one member's owed portion of an expense.
type Share struct {
	MemberID string
	Amount   decimal.Decimal
}

// Expense is a single payment by one member, split across members.
// Shares need not be equal and need not include the payer.
type Expense struct {
	ID      string
	Amount  decimal.Decimal
	PayerID string
	Shares  []Share
}

// Payment is a recorded settlement transfer between two members.
// It counts as paid for the sender and owed for the receiver, reducing
// the outstanding debt between them.
type Payment struct {
	FromID string
	ToID   string
	Amount decimal.Decimal
}

// Balance is a member's net position across all expenses and payments.
// Positive Net means the group owes this member money.
type Balance struct {
	MemberID  string
	Name      string
	TotalPaid decimal.Decimal
	TotalOwed decimal.Decimal
	Net       decimal.Decimal
}

// EqualShares splits amount evenly across the given members. Each share is
// rounded to two decimal places and the rounding remainder is added to the
// last share, so the shares always sum exactly to amount
// (10 across three members -> 3.33, 3.33, 3.34).
func EqualShares(amount decimal.Decimal, memberIDs []string) []Share {
	n := len(memberIDs)
	if n == 0 {
		return nil
	}

	per := amount.DivRound(decimal.NewFromInt(int64(n)), 2)
	shares := make([]Share, n)
	allocated := decimal.Zero
	for i, id := range memberIDs[:n-1] {
		shares[i] = Share{MemberID: id, Amount: per}
		allocated = allocated.Add(per)
	}
	shares[n-1] = Share{MemberID: memberIDs[n-1], Amount: amount.Sub(allocated)}
	return shares
}

// ComputeBalances aggregates paid and owed totals for every member.
//
// For each expense the payer is credited the full amount and every share
// member is debited their share. Recorded payments count as paid for the
// sender and owed for the receiver. Net = paid - owed.
//
// A malformed expense or payment (unknown member, empty split, non-positive
// amount) fails the whole computation rather than silently corrupting a
// total. Balances are returned in the members' input order.
func ComputeBalances(members []Member, expenses []Expense, payments []Payment) ([]Balance, error) {
	balances := make([]Balance, len(members))
	index := make(map[string]*Balance, len(members))
	for i, m := range members {
		balances[i] = Balance{
			MemberID:  m.ID,
			Name:      m.Name,
			TotalPaid: decimal.Zero,
			TotalOwed: decimal.Zero,
		}
		index[m.ID] = &balances[i]
	}

	for _, e := range expenses {
		if !e.Amount.IsPositive() {
			return nil, fmt.Errorf("expense %s: %w", e.ID, ErrNonPositiveAmount)
		}
		if len(e.Shares) == 0 {
			return nil, fmt.Errorf("expense %s: %w", e.ID, ErrEmptySplit)
		}
		payer, ok := index[e.PayerID]
		if !ok {
			return nil, fmt.Errorf("expense %s: payer %s: %w", e.ID, e.PayerID, ErrUnknownMember)
		}

		// Validate the whole split before touching any total.
		for _, s := range e.Shares {
			if _, ok := index[s.MemberID]; !ok {
				return nil, fmt.Errorf("expense %s: share for %s: %w", e.ID, s.MemberID, ErrUnknownMember)
			}
			// Zero shares are tolerated: an equal split of a sub-cent
			// amount can legitimately round a share down to zero.
			if s.Amount.IsNegative() {
				return nil, fmt.Errorf("expense %s: share for %s: %w", e.ID, s.MemberID, ErrNegativeShare)
			}
		}

		payer.TotalPaid = payer.TotalPaid.Add(e.Amount)
		for _, s := range e.Shares {
			b := index[s.MemberID]
			b.TotalOwed = b.TotalOwed.Add(s.Amount)
		}
	}

	for _, p := range payments {
		if !p.Amount.IsPositive() {
			return nil, fmt.Errorf("payment %s->%s: %w", p.FromID, p.ToID, ErrNonPositiveAmount)
		}
		from, ok := index[p.FromID]
		if !ok {
			return nil, fmt.Errorf("payment from %s: %w", p.FromID, ErrUnknownMember)
		}
		to, ok := index[p.ToID]
		if !ok {
			return nil, fmt.Errorf("payment to %s: %w", p.ToID, ErrUnknownMember)
		}
		from.TotalPaid = from.TotalPaid.Add(p.Amount)
		to.TotalOwed = to.TotalOwed.Add(p.Amount)
	}

	for i := range balances {
		balances[i].Net = balances[i].TotalPaid.Sub(balances[i].TotalOwed)
	}
	return balances, nil
}
