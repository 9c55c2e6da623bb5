// Package service orchestrates the pure computation core around storage,
// authorization, rates, metrics and notifications. Recomputation and
// receipt sync run as one logical unit per spec: read previous receipts,
// compute new debts, merge, write back. Callers must not interleave two
// concurrent recomputations for the same group.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/owwnwrrght/ledgex/internal/calculator"
	"github.com/owwnwrrght/ledgex/internal/metrics"
	"github.com/owwnwrrght/ledgex/internal/middleware"
	"github.com/owwnwrrght/ledgex/internal/models"
	"github.com/owwnwrrght/ledgex/internal/money"
	"github.com/owwnwrrght/ledgex/internal/notify"
	"github.com/owwnwrrght/ledgex/internal/rates"
	"github.com/owwnwrrght/ledgex/internal/settlement"
	"github.com/owwnwrrght/ledgex/internal/storage"
)

// LedgerService exposes expense mutations, balance queries and settlement
// state for groups. Every expense mutation triggers a full recomputation;
// nothing is incrementally patched.
type LedgerService struct {
	store     storage.Store
	rates     rates.Provider
	publisher notify.Publisher
	metrics   *metrics.Metrics
}

// NewLedgerService creates a LedgerService. publisher and m may be a Noop
// publisher and nil metrics respectively.
func NewLedgerService(store storage.Store, rateProvider rates.Provider, publisher notify.Publisher, m *metrics.Metrics) *LedgerService {
	if publisher == nil {
		publisher = notify.Noop{}
	}
	return &LedgerService{
		store:     store,
		rates:     rateProvider,
		publisher: publisher,
		metrics:   m,
	}
}

// requireMember loads the group and checks the authenticated caller is a
// member. Shared preamble of every group-scoped operation.
func (s *LedgerService) requireMember(ctx context.Context, groupID string) (*models.Group, string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, "", ErrUnauthenticated
	}

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, "", err
	}
	if _, ok := group.Member(userID); !ok {
		return nil, "", fmt.Errorf("%w: you must be a member of this group", ErrPermissionDenied)
	}
	return group, userID, nil
}

// AddExpense validates, converts and persists a new expense, then
// recomputes the group's balances and settlement state.
func (s *LedgerService) AddExpense(ctx context.Context, groupID string, exp *models.Expense) (*models.Expense, error) {
	group, _, err := s.requireMember(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if err := s.prepareExpense(group, exp); err != nil {
		return nil, err
	}

	if err := s.store.CreateExpense(ctx, exp); err != nil {
		slog.Error("AddExpense failed", "group_id", groupID, "error", err)
		return nil, err
	}

	if err := s.Recalculate(ctx, groupID); err != nil {
		return nil, err
	}
	return exp, nil
}

// UpdateExpense replaces a stored expense wholesale and recomputes.
func (s *LedgerService) UpdateExpense(ctx context.Context, groupID string, exp *models.Expense) (*models.Expense, error) {
	group, _, err := s.requireMember(ctx, groupID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetExpense(ctx, exp.ID)
	if err != nil {
		return nil, err
	}
	if existing.GroupID != groupID {
		return nil, fmt.Errorf("%w: expense belongs to another group", ErrPermissionDenied)
	}
	exp.GroupID = groupID
	exp.CreatedAt = existing.CreatedAt

	if err := s.prepareExpense(group, exp); err != nil {
		return nil, err
	}

	if err := s.store.ReplaceExpense(ctx, exp); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", exp.ID, "error", err)
		return nil, err
	}

	if err := s.Recalculate(ctx, groupID); err != nil {
		return nil, err
	}
	return exp, nil
}

// DeleteExpense removes an expense and recomputes.
func (s *LedgerService) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	if _, _, err := s.requireMember(ctx, groupID); err != nil {
		return err
	}

	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if existing.GroupID != groupID {
		return fmt.Errorf("%w: expense belongs to another group", ErrPermissionDenied)
	}

	if err := s.store.DeleteExpense(ctx, expenseID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expenseID, "error", err)
		return err
	}

	return s.Recalculate(ctx, groupID)
}

// prepareExpense validates the payer and participants against the group
// and derives the base-currency amount from the entered amount. The split
// itself is dry-run so malformed split parameters are rejected at entry.
func (s *LedgerService) prepareExpense(group *models.Group, exp *models.Expense) error {
	if _, ok := group.Member(exp.PayerID); !ok {
		return fmt.Errorf("%w: payer %s is not a group member", ErrInvalidInput, exp.PayerID)
	}
	for _, p := range exp.Participants {
		if _, ok := group.Member(p); !ok {
			return fmt.Errorf("%w: participant %s is not a group member", ErrInvalidInput, p)
		}
	}

	if exp.EnteredAmount.Currency() == "" {
		exp.EnteredAmount = exp.Amount
	}
	converted, err := s.convert(exp.EnteredAmount, group.Currency)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	exp.Amount = converted
	exp.GroupID = group.ID

	splits, err := calculator.ComputeSplit(exp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Exact/percentage/shares splits are not forced to reconcile with the
	// total; a mismatch is surfaced in the logs and otherwise propagated
	// as-is into balances. Validation at entry is the UI's job.
	sum := money.Zero(group.Currency)
	for _, owed := range splits {
		if sum, err = sum.Add(owed); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	// Amount is the full total for every split type; on an itemized
	// expense the surcharge is already included in it.
	if !sum.ApproxEqual(exp.Amount) {
		slog.Warn("split amounts do not sum to the expense total",
			"expense_id", exp.ID,
			"split_type", exp.Split,
			"sum", sum.String(),
			"total", exp.Amount.String(),
		)
	}
	return nil
}

// convert converts an amount into the target currency through the rate
// provider. Same-currency conversion is the identity.
func (s *LedgerService) convert(amount money.Amount, currency string) (money.Amount, error) {
	if amount.Currency() == currency {
		return amount, nil
	}
	rate, err := s.rates.Rate(amount.Currency(), currency)
	if err != nil {
		return money.Amount{}, err
	}
	return money.New(amount.Decimal().Mul(rate), currency).Round(), nil
}

// Balances returns the current per-member balances for a group.
func (s *LedgerService) Balances(ctx context.Context, groupID string) ([]calculator.PersonBalance, error) {
	group, _, err := s.requireMember(ctx, groupID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.AggregateBalances(expenses, group.MemberIDs(), group.Currency)
}

// Expenses returns the group's expense history, newest first.
func (s *LedgerService) Expenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	if _, _, err := s.requireMember(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListExpensesByGroup(ctx, groupID)
}

// Settlements returns the group's current settlement receipts.
func (s *LedgerService) Settlements(ctx context.Context, groupID string) ([]models.SettlementReceipt, error) {
	if _, _, err := s.requireMember(ctx, groupID); err != nil {
		return nil, err
	}
	return s.store.ListSettlementReceipts(ctx, groupID)
}

// Recalculate runs the full pipeline for one group: aggregate balances,
// simplify debts, sync receipts against the stored set, and persist the
// result. The settlements-changed event is published only when the
// receipt set actually changed, so repeated recomputation of an unchanged
// ledger is observable as a no-op.
func (s *LedgerService) Recalculate(ctx context.Context, groupID string) error {
	start := time.Now()

	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return err
	}

	balances, err := calculator.AggregateBalances(expenses, group.MemberIDs(), group.Currency)
	if err != nil {
		return fmt.Errorf("failed to aggregate balances: %w", err)
	}
	transfers := calculator.SimplifyDebts(balances, group.Currency)

	prior, err := s.store.ListSettlementReceipts(ctx, groupID)
	if err != nil {
		return err
	}
	receipts := settlement.Sync(groupID, transfers, prior, time.Now().Unix())

	if err := s.store.SetSettlementReceipts(ctx, groupID, receipts); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecomputesTotal.Inc()
		s.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
		s.metrics.TransfersEmitted.Observe(float64(len(transfers)))
	}

	if receiptsChanged(prior, receipts) {
		msg := notify.NewSettlementsChangedMessage(groupID, len(transfers))
		if err := s.publisher.PublishSettlementsChanged(ctx, msg); err != nil {
			// Notification is best-effort; the recompute already succeeded.
			slog.Warn("failed to publish settlements-changed event",
				"group_id", groupID, "error", err)
		}
	}

	slog.Debug("group recalculated",
		"group_id", groupID,
		"expenses", len(expenses),
		"transfers", len(transfers),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func receiptsChanged(prior, current []models.SettlementReceipt) bool {
	if len(prior) != len(current) {
		return true
	}
	type pair struct{ from, to string }
	old := make(map[pair]models.SettlementReceipt, len(prior))
	for _, r := range prior {
		old[pair{r.FromPersonID, r.ToPersonID}] = r
	}
	for _, r := range current {
		o, ok := old[pair{r.FromPersonID, r.ToPersonID}]
		if !ok || !o.Amount.ApproxEqual(r.Amount) || o.IsReceived != r.IsReceived {
			return true
		}
	}
	return false
}

// MarkReceived toggles the IsReceived flag on one receipt. Only the
// creditor (the "to" person) or the group admin may confirm a payment.
func (s *LedgerService) MarkReceived(ctx context.Context, groupID, fromPersonID, toPersonID string, received bool) error {
	group, userID, err := s.requireMember(ctx, groupID)
	if err != nil {
		return err
	}
	if userID != toPersonID && userID != group.CreatedBy {
		return fmt.Errorf("%w: only the creditor or the group admin may confirm a payment", ErrPermissionDenied)
	}

	if err := s.store.SetReceiptReceived(ctx, groupID, fromPersonID, toPersonID, received, time.Now().Unix()); err != nil {
		return err
	}
	slog.Info("settlement receipt updated",
		"group_id", groupID,
		"from", fromPersonID,
		"to", toPersonID,
		"received", received,
		"by", userID,
	)
	return nil
}

// ChangeBaseCurrency switches the group to a new base currency. Every
// expense total is re-derived from its originally entered amount and
// currency, never from the previously converted amount, so repeated
// currency changes do not compound rounding error. Split parameters that
// only exist in the base currency (exact amounts, item prices, surcharge)
// are converted from the old base. Ends with a full recompute.
func (s *LedgerService) ChangeBaseCurrency(ctx context.Context, groupID, currency string) error {
	group, userID, err := s.requireMember(ctx, groupID)
	if err != nil {
		return err
	}
	if userID != group.CreatedBy {
		return fmt.Errorf("%w: only the group admin may change the base currency", ErrPermissionDenied)
	}
	if currency == "" {
		return fmt.Errorf("%w: currency required", ErrInvalidInput)
	}
	if currency == group.Currency {
		return nil
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return err
	}

	for _, exp := range expenses {
		if exp.Amount, err = s.convert(exp.EnteredAmount, currency); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if exp.Surcharge.Currency() != "" {
			if exp.Surcharge, err = s.convert(exp.Surcharge, currency); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
		}
		for id, amt := range exp.ExactAmounts {
			if exp.ExactAmounts[id], err = s.convert(amt, currency); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
		}
		for i := range exp.Items {
			if exp.Items[i].Price, err = s.convert(exp.Items[i].Price, currency); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
		}
	}

	if err := s.store.ReplaceExpenses(ctx, groupID, expenses); err != nil {
		return err
	}
	if err := s.store.SetGroupCurrency(ctx, groupID, currency); err != nil {
		return err
	}

	slog.Info("group base currency changed",
		"group_id", groupID,
		"from", group.Currency,
		"to", currency,
		"expenses", len(expenses),
	)
	return s.Recalculate(ctx, groupID)
}
