package service

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/owwnwrrght/ledgex/internal/middleware"
	"github.com/owwnwrrght/ledgex/internal/models"
	"github.com/owwnwrrght/ledgex/internal/money"
	"github.com/owwnwrrght/ledgex/internal/rates"
	"github.com/owwnwrrght/ledgex/internal/storage"
	"github.com/owwnwrrght/ledgex/internal/storage/sqlite"
)

// setupLedgerTest creates a ledger service over a temp database, with a
// group of alice (admin), bob and carol already in place.
func setupLedgerTest(t *testing.T) (*LedgerService, *GroupService, *models.Group, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	rateTable := map[string]decimal.Decimal{
		"USD/EUR": decimal.RequireFromString("0.5"),
	}
	ledgerSvc := NewLedgerService(store, rates.NewStatic(rateTable), nil, nil)
	groupSvc := NewGroupService(store)

	group, err := groupSvc.CreateGroup(authCtx("alice"), "Trip", "USD", []models.Person{
		{ID: "bob", Name: "Bob"},
		{ID: "carol", Name: "Carol"},
	})
	if err != nil {
		store.Close()
		os.Remove(tmpFile.Name())
		t.Fatalf("CreateGroup failed: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.Remove(tmpFile.Name())
	}
	return ledgerSvc, groupSvc, group, cleanup
}

func authCtx(userID string) context.Context {
	ctx := context.WithValue(context.Background(), middleware.UserIDKey, userID)
	return context.WithValue(ctx, middleware.EmailKey, userID+"@example.com")
}

func amount(s, currency string) money.Amount {
	return money.New(decimal.RequireFromString(s), currency)
}

func equalExpense(groupID, payerID, total string, participants ...string) *models.Expense {
	return &models.Expense{
		GroupID:      groupID,
		Description:  "test expense",
		Amount:       amount(total, "USD"),
		PayerID:      payerID,
		Split:        models.SplitEqual,
		Participants: participants,
	}
}

func findReceipt(t *testing.T, receipts []models.SettlementReceipt, from, to string) models.SettlementReceipt {
	t.Helper()
	for _, r := range receipts {
		if r.FromPersonID == from && r.ToPersonID == to {
			return r
		}
	}
	t.Fatalf("no receipt %s -> %s in %+v", from, to, receipts)
	return models.SettlementReceipt{}
}

func TestAddExpenseRecalculatesSettlements(t *testing.T) {
	svc, _, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	_, err := svc.AddExpense(authCtx("alice"), group.ID,
		equalExpense(group.ID, "alice", "100.00", "alice", "bob"))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	balances, err := svc.Balances(authCtx("bob"), group.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	for _, b := range balances {
		var want string
		switch b.PersonID {
		case "alice":
			want = "50.00"
		case "bob":
			want = "-50.00"
		default:
			want = "0"
		}
		if b.Net.Decimal().Cmp(decimal.RequireFromString(want)) != 0 {
			t.Errorf("%s net = %v, want %v USD", b.PersonID, b.Net, want)
		}
	}

	receipts, err := svc.Settlements(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	if len(receipts) != 1 {
		t.Fatalf("expected 1 receipt, got %d", len(receipts))
	}
	r := findReceipt(t, receipts, "bob", "alice")
	if r.Amount.Decimal().Cmp(decimal.RequireFromString("50.00")) != 0 {
		t.Errorf("receipt amount = %v, want 50.00 USD", r.Amount)
	}
	if r.IsReceived {
		t.Error("new receipt must start unconfirmed")
	}
}

func TestAddExpenseAuthorization(t *testing.T) {
	svc, _, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	_, err := svc.AddExpense(context.Background(), group.ID,
		equalExpense(group.ID, "alice", "10.00", "alice"))
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated without identity, got %v", err)
	}

	_, err = svc.AddExpense(authCtx("mallory"), group.ID,
		equalExpense(group.ID, "alice", "10.00", "alice"))
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied for non-member, got %v", err)
	}
}

func TestAddExpenseValidation(t *testing.T) {
	svc, _, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	// payer outside the group
	_, err := svc.AddExpense(authCtx("alice"), group.ID,
		equalExpense(group.ID, "mallory", "10.00", "alice"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for non-member payer, got %v", err)
	}

	// participant outside the group
	_, err = svc.AddExpense(authCtx("alice"), group.ID,
		equalExpense(group.ID, "alice", "10.00", "alice", "mallory"))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for non-member participant, got %v", err)
	}

	// malformed split parameters are rejected at entry
	_, err = svc.AddExpense(authCtx("alice"), group.ID, &models.Expense{
		GroupID:      group.ID,
		Amount:       amount("10.00", "USD"),
		PayerID:      "alice",
		Split:        models.SplitShares,
		Participants: []string{"alice", "bob"},
		Shares:       map[string]int64{},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero total shares, got %v", err)
	}

	// item assigned to someone outside the participant list
	_, err = svc.AddExpense(authCtx("alice"), group.ID, &models.Expense{
		GroupID:      group.ID,
		Amount:       amount("10.00", "USD"),
		PayerID:      "alice",
		Split:        models.SplitItemized,
		Participants: []string{"alice", "bob"},
		Items: []models.Item{
			{Description: "Pizza", Price: amount("10.00", "USD"), AssignedTo: []string{"carol"}},
		},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for non-participant assignee, got %v", err)
	}
}

func TestAddExpenseItemizedWithSurcharge(t *testing.T) {
	svc, _, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	// 20.00 of items plus a 2.00 tip, all inside the 22.00 total
	_, err := svc.AddExpense(authCtx("alice"), group.ID, &models.Expense{
		GroupID:      group.ID,
		Description:  "dinner",
		Amount:       amount("22.00", "USD"),
		PayerID:      "alice",
		Split:        models.SplitItemized,
		Participants: []string{"alice", "bob"},
		Items: []models.Item{
			{Description: "Entree", Price: amount("12.00", "USD"), AssignedTo: []string{"alice"}},
			{Description: "Appetizer", Price: amount("8.00", "USD"), AssignedTo: []string{"alice", "bob"}},
		},
		Surcharge: amount("2.00", "USD"),
	})
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	balances, err := svc.Balances(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	sum := money.Zero("USD")
	for _, b := range balances {
		var want string
		switch b.PersonID {
		case "alice":
			want = "5.00"
		case "bob":
			want = "-5.00"
		default:
			want = "0"
		}
		if b.Net.Decimal().Cmp(decimal.RequireFromString(want)) != 0 {
			t.Errorf("%s net = %v, want %v USD", b.PersonID, b.Net, want)
		}
		if sum, err = sum.Add(b.Net); err != nil {
			t.Fatalf("summing nets: %v", err)
		}
	}
	if !sum.IsNegligible() {
		t.Errorf("net balances sum to %v, want zero", sum)
	}

	receipts, err := svc.Settlements(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	if len(receipts) != 1 {
		t.Fatalf("got %d receipts, want 1", len(receipts))
	}
	r := findReceipt(t, receipts, "bob", "alice")
	if r.Amount.Decimal().Cmp(decimal.RequireFromString("5.00")) != 0 {
		t.Errorf("receipt amount = %v, want 5.00 USD", r.Amount)
	}
}

func TestAddExpenseConvertsEnteredCurrency(t *testing.T) {
	svc, _, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	exp := &models.Expense{
		GroupID:       group.ID,
		Description:   "hotel",
		EnteredAmount: amount("100.00", "EUR"),
		PayerID:       "alice",
		Split:         models.SplitEqual,
		Participants:  []string{"alice", "bob"},
	}
	created, err := svc.AddExpense(authCtx("alice"), group.ID, exp)
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	// EUR/USD is the derived inverse of USD/EUR 0.5
	if created.Amount.Currency() != "USD" {
		t.Errorf("amount currency = %s, want USD", created.Amount.Currency())
	}
	if created.Amount.Decimal().Cmp(decimal.RequireFromString("200.00")) != 0 {
		t.Errorf("amount = %v, want 200.00 USD", created.Amount)
	}
	if created.EnteredAmount.Currency() != "EUR" {
		t.Errorf("entered currency = %s, want EUR", created.EnteredAmount.Currency())
	}
}

func TestUpdateExpenseResetsConfirmation(t *testing.T) {
	svc, _, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	created, err := svc.AddExpense(authCtx("alice"), group.ID,
		equalExpense(group.ID, "alice", "100.00", "alice", "bob"))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	// the creditor confirms bob's payment
	if err := svc.MarkReceived(authCtx("alice"), group.ID, "bob", "alice", true); err != nil {
		t.Fatalf("MarkReceived failed: %v", err)
	}

	// an edit that does not move the amount keeps the confirmation
	created.Description = "renamed"
	if _, err := svc.UpdateExpense(authCtx("alice"), group.ID, created); err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	receipts, err := svc.Settlements(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	if !findReceipt(t, receipts, "bob", "alice").IsReceived {
		t.Error("confirmation must survive an edit that leaves the amount unchanged")
	}

	// an edit that moves the amount resets it
	created.Amount = amount("120.00", "USD")
	created.EnteredAmount = money.Amount{}
	if _, err := svc.UpdateExpense(authCtx("alice"), group.ID, created); err != nil {
		t.Fatalf("UpdateExpense failed: %v", err)
	}
	receipts, err = svc.Settlements(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	r := findReceipt(t, receipts, "bob", "alice")
	if r.IsReceived {
		t.Error("confirmation must reset when the owed amount changes")
	}
	if r.Amount.Decimal().Cmp(decimal.RequireFromString("60.00")) != 0 {
		t.Errorf("receipt amount = %v, want 60.00 USD", r.Amount)
	}
}

func TestDeleteExpenseDropsSettledDebt(t *testing.T) {
	svc, _, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	created, err := svc.AddExpense(authCtx("alice"), group.ID,
		equalExpense(group.ID, "alice", "100.00", "alice", "bob"))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	if err := svc.DeleteExpense(authCtx("alice"), group.ID, created.ID); err != nil {
		t.Fatalf("DeleteExpense failed: %v", err)
	}

	receipts, err := svc.Settlements(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	if len(receipts) != 0 {
		t.Errorf("expected no receipts after deleting the only expense, got %d", len(receipts))
	}

	if err := svc.DeleteExpense(authCtx("alice"), group.ID, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestMarkReceivedAuthorization(t *testing.T) {
	svc, _, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	// bob pays for everyone so carol owes bob
	_, err := svc.AddExpense(authCtx("bob"), group.ID,
		equalExpense(group.ID, "bob", "30.00", "bob", "carol"))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	// the debtor cannot confirm their own payment
	err = svc.MarkReceived(authCtx("carol"), group.ID, "carol", "bob", true)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied for the debtor, got %v", err)
	}

	// the creditor can
	if err := svc.MarkReceived(authCtx("bob"), group.ID, "carol", "bob", true); err != nil {
		t.Fatalf("MarkReceived by creditor failed: %v", err)
	}

	// so can the group admin, toggling it back off
	if err := svc.MarkReceived(authCtx("alice"), group.ID, "carol", "bob", false); err != nil {
		t.Fatalf("MarkReceived by admin failed: %v", err)
	}

	err = svc.MarkReceived(authCtx("bob"), group.ID, "nobody", "bob", true)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown pair, got %v", err)
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	svc, _, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	_, err := svc.AddExpense(authCtx("alice"), group.ID,
		equalExpense(group.ID, "alice", "100.00", "alice", "bob"))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	if err := svc.MarkReceived(authCtx("alice"), group.ID, "bob", "alice", true); err != nil {
		t.Fatalf("MarkReceived failed: %v", err)
	}

	before, err := svc.Settlements(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}

	// recomputing an unchanged ledger must not disturb receipts
	if err := svc.Recalculate(context.Background(), group.ID); err != nil {
		t.Fatalf("Recalculate failed: %v", err)
	}
	after, err := svc.Settlements(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}

	if len(before) != len(after) {
		t.Fatalf("receipt count changed: %d then %d", len(before), len(after))
	}
	for i := range before {
		b, a := before[i], after[i]
		if b.FromPersonID != a.FromPersonID || b.ToPersonID != a.ToPersonID ||
			b.Amount.Decimal().Cmp(a.Amount.Decimal()) != 0 ||
			b.IsReceived != a.IsReceived || b.UpdatedAt != a.UpdatedAt {
			t.Errorf("receipt %d changed: %+v then %+v", i, b, a)
		}
	}
}

func TestChangeBaseCurrency(t *testing.T) {
	svc, _, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	created, err := svc.AddExpense(authCtx("alice"), group.ID,
		equalExpense(group.ID, "alice", "100.00", "alice", "bob"))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	// only the admin may switch currencies
	err = svc.ChangeBaseCurrency(authCtx("bob"), group.ID, "EUR")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("expected ErrPermissionDenied for non-admin, got %v", err)
	}

	if err := svc.ChangeBaseCurrency(authCtx("alice"), group.ID, "EUR"); err != nil {
		t.Fatalf("ChangeBaseCurrency failed: %v", err)
	}

	expenses, err := svc.Expenses(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Expenses failed: %v", err)
	}
	var got *models.Expense
	for _, e := range expenses {
		if e.ID == created.ID {
			got = e
		}
	}
	if got == nil {
		t.Fatal("expense missing after currency change")
	}
	if got.Amount.Currency() != "EUR" {
		t.Errorf("amount currency = %s, want EUR", got.Amount.Currency())
	}
	if got.Amount.Decimal().Cmp(decimal.RequireFromString("50.00")) != 0 {
		t.Errorf("amount = %v, want 50.00 EUR at rate 0.5", got.Amount)
	}
	// re-derivation starts from the entered amount, which is untouched
	if got.EnteredAmount.Currency() != "USD" {
		t.Errorf("entered currency = %s, want USD", got.EnteredAmount.Currency())
	}

	receipts, err := svc.Settlements(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Settlements failed: %v", err)
	}
	r := findReceipt(t, receipts, "bob", "alice")
	if r.Amount.Currency() != "EUR" {
		t.Errorf("receipt currency = %s, want EUR", r.Amount.Currency())
	}
	if r.Amount.Decimal().Cmp(decimal.RequireFromString("25.00")) != 0 {
		t.Errorf("receipt amount = %v, want 25.00 EUR", r.Amount)
	}

	// switching back must reproduce the original totals exactly
	if err := svc.ChangeBaseCurrency(authCtx("alice"), group.ID, "USD"); err != nil {
		t.Fatalf("ChangeBaseCurrency back failed: %v", err)
	}
	expenses, err = svc.Expenses(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Expenses failed: %v", err)
	}
	if expenses[0].Amount.Decimal().Cmp(decimal.RequireFromString("100.00")) != 0 {
		t.Errorf("amount after round trip = %v, want 100.00 USD", expenses[0].Amount)
	}
}

func TestBalancesSkipRemovedMember(t *testing.T) {
	svc, groupSvc, group, cleanup := setupLedgerTest(t)
	defer cleanup()

	_, err := svc.AddExpense(authCtx("alice"), group.ID,
		equalExpense(group.ID, "carol", "30.00", "alice", "bob", "carol"))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}
	_, err = svc.AddExpense(authCtx("alice"), group.ID,
		equalExpense(group.ID, "alice", "20.00", "alice", "bob"))
	if err != nil {
		t.Fatalf("AddExpense failed: %v", err)
	}

	if err := groupSvc.RemoveMember(authCtx("alice"), group.ID, "carol"); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	// carol's expense is skipped entirely; only alice's survives
	balances, err := svc.Balances(authCtx("alice"), group.ID)
	if err != nil {
		t.Fatalf("Balances failed: %v", err)
	}
	if len(balances) != 2 {
		t.Fatalf("expected 2 balances, got %d", len(balances))
	}
	for _, b := range balances {
		var want string
		switch b.PersonID {
		case "alice":
			want = "10.00"
		case "bob":
			want = "-10.00"
		}
		if b.Net.Decimal().Cmp(decimal.RequireFromString(want)) != 0 {
			t.Errorf("%s net = %v, want %v USD", b.PersonID, b.Net, want)
		}
	}
}
