package settle

import (
	"testing"

	"github.com/shopspring/decimal"
)

// applyTransfers nets the transfers back into the balances and returns the
// remaining net per member.
func applyTransfers(balances []Balance, transfers []Transfer) map[string]decimal.Decimal {
	remaining := make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		remaining[b.MemberID] = b.Net
	}
	for _, tr := range transfers {
		remaining[tr.FromID] = remaining[tr.FromID].Add(tr.Amount)
		remaining[tr.ToID] = remaining[tr.ToID].Sub(tr.Amount)
	}
	return remaining
}

func checkTransferInvariants(t *testing.T, balances []Balance, transfers []Transfer) {
	t.Helper()
	for _, tr := range transfers {
		if tr.FromID == tr.ToID {
			t.Errorf("self-transfer for %s", tr.FromID)
		}
		if !tr.Amount.IsPositive() {
			t.Errorf("non-positive transfer amount %s from %s to %s", tr.Amount, tr.FromID, tr.ToID)
		}
	}
	for id, net := range applyTransfers(balances, transfers) {
		if net.Abs().GreaterThan(tolerance) {
			t.Errorf("%s left with unsettled balance %s", id, net)
		}
	}
}

func TestSettleSingleCreditor(t *testing.T) {
	// One expense: Alice fronts 90, split three ways.
	members := []Member{{ID: "alice"}, {ID: "bob"}, {ID: "carol"}}
	expenses := []Expense{{
		ID:      "e1",
		Amount:  dec("90"),
		PayerID: "alice",
		Shares:  EqualShares(dec("90"), []string{"alice", "bob", "carol"}),
	}}

	summary, err := Plan(members, expenses, nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(summary.Transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(summary.Transfers))
	}
	for _, tr := range summary.Transfers {
		if tr.ToID != "alice" {
			t.Errorf("transfer to %s, want alice", tr.ToID)
		}
		if !tr.Amount.Equal(dec("30")) {
			t.Errorf("transfer amount = %s, want 30", tr.Amount)
		}
	}
	if !summary.Settled() {
		t.Errorf("residual = %s, want settled", summary.Residual)
	}
	checkTransferInvariants(t, summary.Balances, summary.Transfers)
}

func TestSettleCrossingExpenses(t *testing.T) {
	members := []Member{{ID: "a"}, {ID: "b"}}
	expenses := []Expense{
		{ID: "e1", Amount: dec("100"), PayerID: "a", Shares: EqualShares(dec("100"), []string{"a", "b"})},
		{ID: "e2", Amount: dec("40"), PayerID: "b", Shares: EqualShares(dec("40"), []string{"a", "b"})},
	}

	summary, err := Plan(members, expenses, nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(summary.Transfers) != 1 {
		t.Fatalf("got %d transfers, want 1", len(summary.Transfers))
	}
	tr := summary.Transfers[0]
	if tr.FromID != "b" || tr.ToID != "a" || !tr.Amount.Equal(dec("30")) {
		t.Errorf("got %s pays %s %s, want b pays a 30", tr.FromID, tr.ToID, tr.Amount)
	}
	checkTransferInvariants(t, summary.Balances, summary.Transfers)
}

func TestSettleEveryonePaidTheirShare(t *testing.T) {
	members := []Member{{ID: "a"}, {ID: "b"}}
	expenses := []Expense{
		{ID: "e1", Amount: dec("20"), PayerID: "a", Shares: []Share{{MemberID: "a", Amount: dec("20")}}},
		{ID: "e2", Amount: dec("35"), PayerID: "b", Shares: []Share{{MemberID: "b", Amount: dec("35")}}},
	}

	summary, err := Plan(members, expenses, nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(summary.Transfers) != 0 {
		t.Errorf("got %d transfers, want none", len(summary.Transfers))
	}
	if !summary.Settled() {
		t.Errorf("residual = %s, want settled", summary.Residual)
	}
}

func TestSettleIndivisibleAmount(t *testing.T) {
	// 10 across three members: shares 3.33/3.33/3.34 sum exactly to 10,
	// so the plan still nets to zero.
	members := []Member{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	expenses := []Expense{{
		ID:      "e1",
		Amount:  dec("10"),
		PayerID: "a",
		Shares:  EqualShares(dec("10"), []string{"a", "b", "c"}),
	}}

	summary, err := Plan(members, expenses, nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if !summary.Residual.IsZero() {
		t.Errorf("residual = %s, want 0", summary.Residual)
	}
	checkTransferInvariants(t, summary.Balances, summary.Transfers)
}

func TestSettleLargestPairsFirst(t *testing.T) {
	balances := []Balance{
		{MemberID: "small-debtor", Net: dec("-10")},
		{MemberID: "big-creditor", Net: dec("90")},
		{MemberID: "big-debtor", Net: dec("-90")},
		{MemberID: "small-creditor", Net: dec("10")},
	}

	transfers, residual := Settle(balances)
	if !residual.IsZero() {
		t.Fatalf("residual = %s, want 0", residual)
	}
	// Sorted matching pairs the two 90s and the two 10s: 2 transfers.
	// Insertion-order matching would need 3.
	if len(transfers) != 2 {
		t.Fatalf("got %d transfers, want 2", len(transfers))
	}
	if transfers[0].FromID != "big-debtor" || transfers[0].ToID != "big-creditor" {
		t.Errorf("first transfer %s->%s, want big-debtor->big-creditor", transfers[0].FromID, transfers[0].ToID)
	}
	checkTransferInvariants(t, balances, transfers)
}

func TestSettleResidualSurfaced(t *testing.T) {
	// Upstream inconsistency: balances do not sum to zero.
	balances := []Balance{
		{MemberID: "a", Net: dec("-10")},
		{MemberID: "b", Net: dec("3")},
	}

	transfers, residual := Settle(balances)
	if !residual.Equal(dec("-7")) {
		t.Errorf("residual = %s, want -7", residual)
	}
	if len(transfers) != 1 {
		t.Fatalf("got %d transfers, want 1", len(transfers))
	}
	if !transfers[0].Amount.Equal(dec("3")) {
		t.Errorf("transfer amount = %s, want 3", transfers[0].Amount)
	}
	summary := &Summary{Residual: residual}
	if summary.Settled() {
		t.Error("expected Settled() to be false for residual -7")
	}
}

func TestSettleNearZeroBalancesExcluded(t *testing.T) {
	balances := []Balance{
		{MemberID: "a", Net: dec("0.005")},
		{MemberID: "b", Net: dec("-0.005")},
	}
	transfers, _ := Settle(balances)
	if len(transfers) != 0 {
		t.Errorf("got %d transfers for sub-tolerance balances, want none", len(transfers))
	}
}

func TestPlanRecomputationIsStable(t *testing.T) {
	members := []Member{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	expenses := []Expense{
		{ID: "e1", Amount: dec("120"), PayerID: "a", Shares: EqualShares(dec("120"), []string{"a", "b", "c", "d"})},
		{ID: "e2", Amount: dec("60"), PayerID: "b", Shares: EqualShares(dec("60"), []string{"b", "c"})},
		{ID: "e3", Amount: dec("45.50"), PayerID: "c", Shares: EqualShares(dec("45.50"), []string{"a", "d"})},
	}

	first, err := Plan(members, expenses, nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	second, err := Plan(members, expenses, nil)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(first.Balances) != len(second.Balances) {
		t.Fatalf("balance counts differ: %d vs %d", len(first.Balances), len(second.Balances))
	}
	for i := range first.Balances {
		if !first.Balances[i].Net.Equal(second.Balances[i].Net) {
			t.Errorf("balance for %s differs across runs: %s vs %s",
				first.Balances[i].MemberID, first.Balances[i].Net, second.Balances[i].Net)
		}
	}
	if len(first.Transfers) != len(second.Transfers) {
		t.Errorf("transfer counts differ: %d vs %d", len(first.Transfers), len(second.Transfers))
	}
	checkTransferInvariants(t, first.Balances, first.Transfers)
}
