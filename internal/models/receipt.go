package models

import "github.com/owwnwrrght/ledgex/internal/money"

// SettlementReceipt tracks whether a computed transfer between two people
// has been marked as paid. One receipt exists per ordered (from, to) pair
// in a group's current simplified-debt set.
//
// The IsReceived flag is the only durable settlement state; the amount is
// recomputed from the expense history and the receipt is dropped entirely
// when the pair no longer appears in the simplified debts.
type SettlementReceipt struct {
	// GroupID is the group this receipt belongs to.
	GroupID string

	// FromPersonID is the debtor (who pays).
	FromPersonID string

	// ToPersonID is the creditor (who receives).
	ToPersonID string

	// Amount is the currently computed transfer amount.
	Amount money.Amount

	// IsReceived records whether the creditor confirmed the payment.
	// Reset to false whenever the recomputed amount changes by more than
	// one minor unit, since a stale confirmation must not carry over.
	IsReceived bool

	// UpdatedAt is the Unix timestamp of the last change to this receipt.
	UpdatedAt int64
}
