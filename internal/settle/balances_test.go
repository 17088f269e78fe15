package settle

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEqualShares(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		members []string
		want    []string
	}{
		{
			name:    "evenly divisible",
			amount:  "90",
			members: []string{"alice", "bob", "carol"},
			want:    []string{"30", "30", "30"},
		},
		{
			name:    "remainder goes to last share",
			amount:  "10",
			members: []string{"a", "b", "c"},
			want:    []string{"3.33", "3.33", "3.34"},
		},
		{
			name:    "single member takes everything",
			amount:  "42.17",
			members: []string{"solo"},
			want:    []string{"42.17"},
		},
		{
			name:    "cent across two",
			amount:  "0.01",
			members: []string{"a", "b"},
			want:    []string{"0.01", "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares := EqualShares(dec(tt.amount), tt.members)
			if len(shares) != len(tt.want) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tt.want))
			}
			sum := decimal.Zero
			for i, s := range shares {
				if s.MemberID != tt.members[i] {
					t.Errorf("share %d member = %s, want %s", i, s.MemberID, tt.members[i])
				}
				if !s.Amount.Equal(dec(tt.want[i])) {
					t.Errorf("share %d = %s, want %s", i, s.Amount, tt.want[i])
				}
				sum = sum.Add(s.Amount)
			}
			if !sum.Equal(dec(tt.amount)) {
				t.Errorf("shares sum to %s, want %s", sum, tt.amount)
			}
		})
	}

	if shares := EqualShares(dec("10"), nil); shares != nil {
		t.Errorf("expected nil shares for no members, got %v", shares)
	}
}

func TestComputeBalances(t *testing.T) {
	members := []Member{
		{ID: "alice", Name: "Alice"},
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Carol"},
	}

	t.Run("single equal split", func(t *testing.T) {
		expenses := []Expense{{
			ID:      "e1",
			Amount:  dec("90"),
			PayerID: "alice",
			Shares:  EqualShares(dec("90"), []string{"alice", "bob", "carol"}),
		}}

		balances, err := ComputeBalances(members, expenses, nil)
		if err != nil {
			t.Fatalf("ComputeBalances failed: %v", err)
		}

		want := map[string]string{"alice": "60", "bob": "-30", "carol": "-30"}
		for _, b := range balances {
			if !b.Net.Equal(dec(want[b.MemberID])) {
				t.Errorf("%s net = %s, want %s", b.MemberID, b.Net, want[b.MemberID])
			}
		}
		if balances[0].TotalPaid.Cmp(dec("90")) != 0 {
			t.Errorf("alice paid = %s, want 90", balances[0].TotalPaid)
		}
		if balances[0].TotalOwed.Cmp(dec("30")) != 0 {
			t.Errorf("alice owed = %s, want 30", balances[0].TotalOwed)
		}
	})

	t.Run("crossing expenses", func(t *testing.T) {
		two := []Member{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
		expenses := []Expense{
			{ID: "e1", Amount: dec("100"), PayerID: "a", Shares: EqualShares(dec("100"), []string{"a", "b"})},
			{ID: "e2", Amount: dec("40"), PayerID: "b", Shares: EqualShares(dec("40"), []string{"a", "b"})},
		}

		balances, err := ComputeBalances(two, expenses, nil)
		if err != nil {
			t.Fatalf("ComputeBalances failed: %v", err)
		}
		if !balances[0].Net.Equal(dec("30")) {
			t.Errorf("a net = %s, want 30", balances[0].Net)
		}
		if !balances[1].Net.Equal(dec("-30")) {
			t.Errorf("b net = %s, want -30", balances[1].Net)
		}
	})

	t.Run("explicit uneven shares", func(t *testing.T) {
		expenses := []Expense{{
			ID:      "e1",
			Amount:  dec("100"),
			PayerID: "bob",
			Shares: []Share{
				{MemberID: "alice", Amount: dec("70")},
				{MemberID: "carol", Amount: dec("30")},
			},
		}}

		balances, err := ComputeBalances(members, expenses, nil)
		if err != nil {
			t.Fatalf("ComputeBalances failed: %v", err)
		}
		want := map[string]string{"alice": "-70", "bob": "100", "carol": "-30"}
		for _, b := range balances {
			if !b.Net.Equal(dec(want[b.MemberID])) {
				t.Errorf("%s net = %s, want %s", b.MemberID, b.Net, want[b.MemberID])
			}
		}
	})

	t.Run("recorded payment reduces debt", func(t *testing.T) {
		expenses := []Expense{{
			ID:      "e1",
			Amount:  dec("90"),
			PayerID: "alice",
			Shares:  EqualShares(dec("90"), []string{"alice", "bob", "carol"}),
		}}
		payments := []Payment{{FromID: "bob", ToID: "alice", Amount: dec("30")}}

		balances, err := ComputeBalances(members, expenses, payments)
		if err != nil {
			t.Fatalf("ComputeBalances failed: %v", err)
		}
		want := map[string]string{"alice": "30", "bob": "0", "carol": "-30"}
		for _, b := range balances {
			if !b.Net.Equal(dec(want[b.MemberID])) {
				t.Errorf("%s net = %s, want %s", b.MemberID, b.Net, want[b.MemberID])
			}
		}
	})

	t.Run("zero-sum invariant", func(t *testing.T) {
		expenses := []Expense{
			{ID: "e1", Amount: dec("10"), PayerID: "alice", Shares: EqualShares(dec("10"), []string{"alice", "bob", "carol"})},
			{ID: "e2", Amount: dec("33.35"), PayerID: "bob", Shares: EqualShares(dec("33.35"), []string{"bob", "carol"})},
			{ID: "e3", Amount: dec("7.77"), PayerID: "carol", Shares: EqualShares(dec("7.77"), []string{"alice"})},
		}

		balances, err := ComputeBalances(members, expenses, nil)
		if err != nil {
			t.Fatalf("ComputeBalances failed: %v", err)
		}
		sum := decimal.Zero
		for _, b := range balances {
			sum = sum.Add(b.Net)
		}
		if !sum.IsZero() {
			t.Errorf("balances sum to %s, want 0", sum)
		}
	})
}

func TestComputeBalancesValidation(t *testing.T) {
	members := []Member{{ID: "alice", Name: "Alice"}, {ID: "bob", Name: "Bob"}}

	tests := []struct {
		name     string
		expenses []Expense
		payments []Payment
		wantErr  error
	}{
		{
			name: "unknown payer",
			expenses: []Expense{{
				ID: "e1", Amount: dec("10"), PayerID: "mallory",
				Shares: []Share{{MemberID: "alice", Amount: dec("10")}},
			}},
			wantErr: ErrUnknownMember,
		},
		{
			name: "unknown share member",
			expenses: []Expense{{
				ID: "e1", Amount: dec("10"), PayerID: "alice",
				Shares: []Share{{MemberID: "mallory", Amount: dec("10")}},
			}},
			wantErr: ErrUnknownMember,
		},
		{
			name:     "empty split",
			expenses: []Expense{{ID: "e1", Amount: dec("10"), PayerID: "alice"}},
			wantErr:  ErrEmptySplit,
		},
		{
			name: "zero amount",
			expenses: []Expense{{
				ID: "e1", Amount: decimal.Zero, PayerID: "alice",
				Shares: []Share{{MemberID: "bob", Amount: dec("10")}},
			}},
			wantErr: ErrNonPositiveAmount,
		},
		{
			name: "negative share",
			expenses: []Expense{{
				ID: "e1", Amount: dec("10"), PayerID: "alice",
				Shares: []Share{{MemberID: "bob", Amount: dec("-10")}},
			}},
			wantErr: ErrNegativeShare,
		},
		{
			name:     "payment to unknown member",
			payments: []Payment{{FromID: "alice", ToID: "mallory", Amount: dec("5")}},
			wantErr:  ErrUnknownMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeBalances(members, tt.expenses, tt.payments)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}
