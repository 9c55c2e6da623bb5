package models

import (
	"github.com/shopspring/decimal"

	"github.com/owwnwrrght/ledgex/internal/money"
)

// SplitType identifies how an expense is divided among its participants.
// The set is closed: the split calculator matches it exhaustively and
// treats anything else as an error rather than silently skipping it.
type SplitType string

const (
	// SplitEqual divides the total evenly; the first participant absorbs
	// any minor-unit remainder so the shares sum exactly to the total.
	SplitEqual SplitType = "equal"

	// SplitExact uses caller-supplied per-participant amounts as-is.
	SplitExact SplitType = "exact"

	// SplitPercentage allocates round(total × pct/100) per participant.
	SplitPercentage SplitType = "percentage"

	// SplitShares allocates round(total × share/totalShares) per participant.
	SplitShares SplitType = "shares"

	// SplitItemized derives shares from line-item assignments plus an even
	// split of tax/tip across participants who were assigned at least one item.
	SplitItemized SplitType = "itemized"
)

// Expense represents one shared expense and how it is split.
// Expenses are created once and replaced wholesale on edit.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	// Description is the human-readable label (e.g. "Dinner at Luigi's").
	Description string

	// Category is an optional free-form category (e.g. "food", "travel").
	Category string

	// Amount is the expense total in the group's base currency. For an
	// itemized expense this is the item prices plus the surcharge; the
	// surcharge is never carried on top of Amount.
	Amount money.Amount

	// EnteredAmount is the amount as originally entered, in its original
	// currency. When it differs from the base currency, Amount holds the
	// converted value; re-conversion (on a base-currency change) always
	// starts from EnteredAmount, never from a previously converted Amount,
	// to avoid compounding rounding error.
	EnteredAmount money.Amount

	// PayerID is the Person who paid.
	PayerID string

	// Split selects the split strategy for this expense.
	Split SplitType

	// Participants is the ordered list of Person ids sharing the expense.
	// Order matters: the equal split assigns its rounding remainder to the
	// first participant.
	Participants []string

	// ExactAmounts holds per-participant owed amounts for SplitExact.
	ExactAmounts map[string]money.Amount

	// Percentages holds per-participant percentages for SplitPercentage.
	Percentages map[string]decimal.Decimal

	// Shares holds integer share counts for SplitShares.
	Shares map[string]int64

	// Items holds the line items for SplitItemized.
	Items []Item

	// Surcharge is the tax/tip on an itemized expense, distributed evenly
	// across participants who were assigned at least one item. It is part
	// of Amount, broken out so the split knows how much to distribute.
	Surcharge money.Amount

	// Date is the Unix timestamp of when the expense occurred.
	Date int64

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// Item represents a single line item on an itemized expense.
// Items assigned to several people are split evenly among them.
type Item struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// Description is the name of the item (e.g. "Pizza", "Beer").
	Description string

	// Price is the item price in the group's base currency.
	Price money.Amount

	// AssignedTo lists the Person ids splitting this item.
	AssignedTo []string
}
