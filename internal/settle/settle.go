package settle

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Transfer is one suggested settling payment.
type Transfer struct {
	FromID string
	ToID   string
	Amount decimal.Decimal
}

// Summary is the full output of a settlement plan.
type Summary struct {
	Balances  []Balance
	Transfers []Transfer

	// Residual is the signed sum of all net balances. It is zero (within
	// tolerance) whenever every expense's shares sum to its amount; a larger
	// residual means the snapshot is inconsistent upstream and the transfers
	// are best-effort.
	Residual decimal.Decimal
}

// Settled reports whether the residual is within the settlement tolerance.
func (s *Summary) Settled() bool {
	return s.Residual.Abs().LessThanOrEqual(tolerance)
}

type party struct {
	id        string
	remaining decimal.Decimal
}

// Settle produces transfers that drive every balance to within tolerance of
// zero, using greedy largest-pair matching: debtors and creditors are sorted
// descending by magnitude and the largest debt is repeatedly paid against the
// largest credit. Sorting keeps the transfer count near the minimum; exact
// minimality is NP-hard and out of scope.
//
// The returned residual is the signed sum of the input nets. When it exceeds
// tolerance the balances cannot fully net out and one side is left partially
// unsettled; callers should surface that as a consistency warning.
func Settle(balances []Balance) ([]Transfer, decimal.Decimal) {
	var debtors, creditors []party
	residual := decimal.Zero
	for _, b := range balances {
		residual = residual.Add(b.Net)
		switch {
		case b.Net.GreaterThan(tolerance):
			creditors = append(creditors, party{id: b.MemberID, remaining: b.Net})
		case b.Net.LessThan(tolerance.Neg()):
			debtors = append(debtors, party{id: b.MemberID, remaining: b.Net.Neg()})
		}
	}

	byMagnitude := func(parties []party) func(i, j int) bool {
		return func(i, j int) bool {
			if !parties[i].remaining.Equal(parties[j].remaining) {
				return parties[i].remaining.GreaterThan(parties[j].remaining)
			}
			return parties[i].id < parties[j].id
		}
	}
	sort.Slice(debtors, byMagnitude(debtors))
	sort.Slice(creditors, byMagnitude(creditors))

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		d, c := &debtors[i], &creditors[j]

		amount := d.remaining
		if c.remaining.LessThan(amount) {
			amount = c.remaining
		}
		transfers = append(transfers, Transfer{FromID: d.id, ToID: c.id, Amount: amount})

		d.remaining = d.remaining.Sub(amount)
		c.remaining = c.remaining.Sub(amount)
		if d.remaining.LessThanOrEqual(tolerance) {
			i++
		}
		if c.remaining.LessThanOrEqual(tolerance) {
			j++
		}
	}

	return transfers, residual
}

// Plan computes balances and a settlement in one call.
func Plan(members []Member, expenses []Expense, payments []Payment) (*Summary, error) {
	balances, err := ComputeBalances(members, expenses, payments)
	if err != nil {
		return nil, err
	}
	transfers, residual := Settle(balances)
	return &Summary{Balances: balances, Transfers: transfers, Residual: residual}, nil
}
