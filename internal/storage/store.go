// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/owwnwrrght/ledgex/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for ledger persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Writes follow the replace-wholesale rule: an expense edit replaces the
// whole expense, and a receipt sync replaces a group's whole receipt set.
// There are no partial field updates except the IsReceived toggle.
type Store interface {
	// CreateGroup persists a new group. The group.ID field will be
	// populated by the store if empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members in insertion order.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddGroupMembers appends members not already in the group.
	AddGroupMembers(ctx context.Context, groupID string, members []models.Person) error

	// RemoveGroupMember removes a member. Historical expenses referencing
	// the member are kept; the aggregator skips them.
	RemoveGroupMember(ctx context.Context, groupID, personID string) error

	// SetGroupCurrency updates the group's base currency.
	SetGroupCurrency(ctx context.Context, groupID, currency string) error

	// CreateExpense persists a new expense and populates its ID.
	CreateExpense(ctx context.Context, exp *models.Expense) error

	// ReplaceExpense replaces a stored expense wholesale.
	ReplaceExpense(ctx context.Context, exp *models.Expense) error

	// DeleteExpense removes an expense.
	DeleteExpense(ctx context.Context, expenseID string) error

	// GetExpense retrieves a single expense with all split parameters.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup retrieves all expenses for a group, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ReplaceExpenses replaces every expense of a group in one transaction.
	// Used when a base-currency change re-derives all stored amounts.
	ReplaceExpenses(ctx context.Context, groupID string, expenses []*models.Expense) error

	// ListSettlementReceipts retrieves a group's receipt set.
	ListSettlementReceipts(ctx context.Context, groupID string) ([]models.SettlementReceipt, error)

	// SetSettlementReceipts replaces a group's receipt set in one
	// transaction. Receipts absent from the new set are dropped.
	SetSettlementReceipts(ctx context.Context, groupID string, receipts []models.SettlementReceipt) error

	// SetReceiptReceived toggles the IsReceived flag on one receipt.
	SetReceiptReceived(ctx context.Context, groupID, fromPersonID, toPersonID string, received bool, now int64) error

	// CreateUser inserts a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns (nil, nil) when
	// no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by id. Returns (nil, nil) when no such
	// user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
