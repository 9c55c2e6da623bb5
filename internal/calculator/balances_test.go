package calculator

import (
	"testing"

	"github.com/owwnwrrght/ledgex/internal/models"
	"github.com/owwnwrrght/ledgex/internal/money"
)

func findBalance(t *testing.T, balances []PersonBalance, personID string) PersonBalance {
	t.Helper()
	for _, b := range balances {
		if b.PersonID == personID {
			return b
		}
	}
	t.Fatalf("no balance for %s", personID)
	return PersonBalance{}
}

func assertNet(t *testing.T, balances []PersonBalance, personID, want string) {
	t.Helper()
	bal := findBalance(t, balances, personID)
	if bal.Net.Decimal().Cmp(pct(want)) != 0 {
		t.Errorf("%s net = %v, want %v USD", personID, bal.Net, want)
	}
}

// Net balances must always sum to zero: every dollar owed is a dollar
// someone else is owed.
func assertConservation(t *testing.T, balances []PersonBalance) {
	t.Helper()
	sum := money.Zero("USD")
	var err error
	for _, b := range balances {
		if sum, err = sum.Add(b.Net); err != nil {
			t.Fatalf("summing nets: %v", err)
		}
	}
	if !sum.IsNegligible() {
		t.Errorf("net balances sum to %v, want zero", sum)
	}
}

func TestAggregateBalances(t *testing.T) {
	tests := []struct {
		name         string
		expenses     []*models.Expense
		memberIDs    []string
		wantErr      bool
		validateFunc func(t *testing.T, balances []PersonBalance)
	}{
		{
			name:      "no expenses yields all-zero balances",
			expenses:  nil,
			memberIDs: []string{"alice", "bob"},
			validateFunc: func(t *testing.T, balances []PersonBalance) {
				if len(balances) != 2 {
					t.Fatalf("got %d balances, want 2", len(balances))
				}
				assertNet(t, balances, "alice", "0")
				assertNet(t, balances, "bob", "0")
			},
		},
		{
			name: "one payer split equally between two",
			expenses: []*models.Expense{
				{
					ID:           "e1",
					Amount:       usd("100.00"),
					PayerID:      "alice",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob"},
				},
			},
			memberIDs: []string{"alice", "bob"},
			validateFunc: func(t *testing.T, balances []PersonBalance) {
				assertNet(t, balances, "alice", "50.00")
				assertNet(t, balances, "bob", "-50.00")
				assertConservation(t, balances)
			},
		},
		{
			name: "alternating payers cancel out",
			expenses: []*models.Expense{
				{
					ID:           "e1",
					Amount:       usd("30.00"),
					PayerID:      "alice",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob", "carol"},
				},
				{
					ID:           "e2",
					Amount:       usd("30.00"),
					PayerID:      "bob",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob", "carol"},
				},
			},
			memberIDs: []string{"alice", "bob", "carol"},
			validateFunc: func(t *testing.T, balances []PersonBalance) {
				assertNet(t, balances, "alice", "10.00")
				assertNet(t, balances, "bob", "10.00")
				assertNet(t, balances, "carol", "-20.00")
				assertConservation(t, balances)
			},
		},
		{
			name: "round-robin payers cancel to zero",
			expenses: []*models.Expense{
				{
					ID:           "e1",
					Amount:       usd("30.00"),
					PayerID:      "alice",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob", "carol"},
				},
				{
					ID:           "e2",
					Amount:       usd("30.00"),
					PayerID:      "bob",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob", "carol"},
				},
				{
					ID:           "e3",
					Amount:       usd("30.00"),
					PayerID:      "carol",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob", "carol"},
				},
			},
			memberIDs: []string{"alice", "bob", "carol"},
			validateFunc: func(t *testing.T, balances []PersonBalance) {
				for _, id := range []string{"alice", "bob", "carol"} {
					assertNet(t, balances, id, "0")
				}
			},
		},
		{
			name: "paid and owed tracked separately",
			expenses: []*models.Expense{
				{
					ID:           "e1",
					Amount:       usd("60.00"),
					PayerID:      "alice",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob"},
				},
			},
			memberIDs: []string{"alice", "bob"},
			validateFunc: func(t *testing.T, balances []PersonBalance) {
				alice := findBalance(t, balances, "alice")
				if alice.TotalPaid.Decimal().Cmp(pct("60.00")) != 0 {
					t.Errorf("alice paid %v, want 60.00 USD", alice.TotalPaid)
				}
				if alice.TotalOwed.Decimal().Cmp(pct("30.00")) != 0 {
					t.Errorf("alice owes %v, want 30.00 USD", alice.TotalOwed)
				}
				bob := findBalance(t, balances, "bob")
				if bob.TotalPaid.IsPositive() {
					t.Errorf("bob paid %v, want 0", bob.TotalPaid)
				}
				if bob.TotalOwed.Decimal().Cmp(pct("30.00")) != 0 {
					t.Errorf("bob owes %v, want 30.00 USD", bob.TotalOwed)
				}
			},
		},
		{
			name: "itemized expense with surcharge conserves balances",
			expenses: []*models.Expense{
				{
					ID:           "e1",
					Amount:       usd("22.00"),
					PayerID:      "alice",
					Split:        models.SplitItemized,
					Participants: []string{"alice", "bob"},
					Items: []models.Item{
						{Description: "Entree", Price: usd("12.00"), AssignedTo: []string{"alice"}},
						{Description: "Appetizer", Price: usd("8.00"), AssignedTo: []string{"alice", "bob"}},
					},
					Surcharge: usd("2.00"),
				},
			},
			memberIDs: []string{"alice", "bob"},
			validateFunc: func(t *testing.T, balances []PersonBalance) {
				// alice paid the 22.00 total and owes 17.00 of it
				alice := findBalance(t, balances, "alice")
				if alice.TotalPaid.Decimal().Cmp(pct("22.00")) != 0 {
					t.Errorf("alice paid %v, want 22.00 USD", alice.TotalPaid)
				}
				assertNet(t, balances, "alice", "5.00")
				assertNet(t, balances, "bob", "-5.00")
				assertConservation(t, balances)
			},
		},
		{
			name: "expense from removed payer is skipped",
			expenses: []*models.Expense{
				{
					ID:           "e1",
					Amount:       usd("100.00"),
					PayerID:      "departed",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob"},
				},
				{
					ID:           "e2",
					Amount:       usd("40.00"),
					PayerID:      "alice",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob"},
				},
			},
			memberIDs: []string{"alice", "bob"},
			validateFunc: func(t *testing.T, balances []PersonBalance) {
				assertNet(t, balances, "alice", "20.00")
				assertNet(t, balances, "bob", "-20.00")
				assertConservation(t, balances)
			},
		},
		{
			name: "split entry for removed participant is skipped",
			expenses: []*models.Expense{
				{
					ID:           "e1",
					Amount:       usd("90.00"),
					PayerID:      "alice",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob", "departed"},
				},
			},
			memberIDs: []string{"alice", "bob"},
			validateFunc: func(t *testing.T, balances []PersonBalance) {
				// departed's 30.00 share is dropped; alice paid 90 and owes 30
				assertNet(t, balances, "alice", "60.00")
				assertNet(t, balances, "bob", "-30.00")
			},
		},
		{
			name: "invalid split aborts aggregation",
			expenses: []*models.Expense{
				{
					ID:           "e1",
					Amount:       usd("10.00"),
					PayerID:      "alice",
					Split:        models.SplitType("random"),
					Participants: []string{"alice"},
				},
			},
			memberIDs: []string{"alice"},
			wantErr:   true,
		},
		{
			name: "balances returned in member order",
			expenses: []*models.Expense{
				{
					ID:           "e1",
					Amount:       usd("10.00"),
					PayerID:      "carol",
					Split:        models.SplitEqual,
					Participants: []string{"alice", "bob", "carol"},
				},
			},
			memberIDs: []string{"carol", "alice", "bob"},
			validateFunc: func(t *testing.T, balances []PersonBalance) {
				want := []string{"carol", "alice", "bob"}
				for i, id := range want {
					if balances[i].PersonID != id {
						t.Errorf("balances[%d] = %s, want %s", i, balances[i].PersonID, id)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			balances, err := AggregateBalances(tt.expenses, tt.memberIDs, "USD")
			if (err != nil) != tt.wantErr {
				t.Errorf("AggregateBalances() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && tt.validateFunc != nil {
				tt.validateFunc(t, balances)
			}
		})
	}
}
