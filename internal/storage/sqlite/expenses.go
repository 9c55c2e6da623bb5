package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/owwnwrrght/ledgex/internal/models"
	"github.com/owwnwrrght/ledgex/internal/money"
	"github.com/owwnwrrght/ledgex/internal/storage"
)

// CreateExpense persists a new expense with its participants, split
// parameters and items.
func (s *SQLiteStore) CreateExpense(ctx context.Context, exp *models.Expense) error {
	if exp.ID == "" {
		exp.ID = uuid.New().String()
	}
	if exp.CreatedAt == 0 {
		exp.CreatedAt = time.Now().Unix()
	}
	if exp.Date == 0 {
		exp.Date = exp.CreatedAt
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertExpenseTx(ctx, tx, exp); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceExpense replaces a stored expense wholesale: the old rows are
// deleted and the new expense is inserted under the same id. There is no
// partial-update path.
func (s *SQLiteStore) ReplaceExpense(ctx context.Context, exp *models.Expense) error {
	if exp.ID == "" {
		return fmt.Errorf("expense id required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", exp.ID)
	if err != nil {
		return fmt.Errorf("failed to delete old expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", exp.ID, storage.ErrNotFound)
	}

	if exp.CreatedAt == 0 {
		exp.CreatedAt = time.Now().Unix()
	}
	if err := insertExpenseTx(ctx, tx, exp); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceExpenses replaces every expense of a group in one transaction.
func (s *SQLiteStore) ReplaceExpenses(ctx context.Context, groupID string, expenses []*models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to delete group expenses: %w", err)
	}

	for _, exp := range expenses {
		if err := insertExpenseTx(ctx, tx, exp); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense and its dependent rows.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return nil
}

// GetExpense retrieves a single expense with all split parameters.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	exp, err := s.scanExpenseRow(ctx, s.db.QueryRowContext(ctx,
		expenseColumns+" FROM expenses WHERE id = ?", expenseID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadExpenseDetails(ctx, exp); err != nil {
		return nil, err
	}
	return exp, nil
}

// ListExpensesByGroup retrieves all expenses for a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		expenseColumns+" FROM expenses WHERE group_id = ? ORDER BY date DESC, created_at DESC",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		exp, err := s.scanExpenseRow(ctx, rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, exp := range expenses {
		if err := s.loadExpenseDetails(ctx, exp); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

const expenseColumns = `SELECT id, group_id, description, category,
	amount_minor, currency, entered_amount_minor, entered_currency,
	payer_id, split_type, surcharge_minor, date, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanExpenseRow(ctx context.Context, row rowScanner) (*models.Expense, error) {
	exp := &models.Expense{}
	var amountMinor, enteredMinor, surchargeMinor int64
	var currency, enteredCurrency string

	err := row.Scan(
		&exp.ID, &exp.GroupID, &exp.Description, &exp.Category,
		&amountMinor, &currency, &enteredMinor, &enteredCurrency,
		&exp.PayerID, &exp.Split, &surchargeMinor, &exp.Date, &exp.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense: %w", err)
	}

	exp.Amount = money.FromMinorUnits(amountMinor, currency)
	exp.EnteredAmount = money.FromMinorUnits(enteredMinor, enteredCurrency)
	exp.Surcharge = money.FromMinorUnits(surchargeMinor, currency)
	return exp, nil
}

// loadExpenseDetails fills participants, split parameters and items.
func (s *SQLiteStore) loadExpenseDetails(ctx context.Context, exp *models.Expense) error {
	currency := exp.Amount.Currency()

	rows, err := s.db.QueryContext(ctx,
		`SELECT person_id, exact_amount_minor, percentage, share_count
		 FROM expense_participants WHERE expense_id = ? ORDER BY position`,
		exp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var personID string
		var exactMinor, shareCount sql.NullInt64
		var percentage sql.NullString
		if err := rows.Scan(&personID, &exactMinor, &percentage, &shareCount); err != nil {
			return fmt.Errorf("failed to scan participant: %w", err)
		}

		exp.Participants = append(exp.Participants, personID)
		if exactMinor.Valid {
			if exp.ExactAmounts == nil {
				exp.ExactAmounts = make(map[string]money.Amount)
			}
			exp.ExactAmounts[personID] = money.FromMinorUnits(exactMinor.Int64, currency)
		}
		if percentage.Valid {
			pct, err := decimal.NewFromString(percentage.String)
			if err != nil {
				return fmt.Errorf("invalid stored percentage %q: %w", percentage.String, err)
			}
			if exp.Percentages == nil {
				exp.Percentages = make(map[string]decimal.Decimal)
			}
			exp.Percentages[personID] = pct
		}
		if shareCount.Valid {
			if exp.Shares == nil {
				exp.Shares = make(map[string]int64)
			}
			exp.Shares[personID] = shareCount.Int64
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate participants: %w", err)
	}

	itemRows, err := s.db.QueryContext(ctx,
		"SELECT id, description, price_minor FROM items WHERE expense_id = ?",
		exp.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var item models.Item
		var priceMinor int64
		if err := itemRows.Scan(&item.ID, &item.Description, &priceMinor); err != nil {
			return fmt.Errorf("failed to scan item: %w", err)
		}
		item.Price = money.FromMinorUnits(priceMinor, currency)

		assignRows, err := s.db.QueryContext(ctx,
			"SELECT person_id FROM item_assignments WHERE item_id = ? ORDER BY person_id",
			item.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to get item assignments: %w", err)
		}
		for assignRows.Next() {
			var personID string
			if err := assignRows.Scan(&personID); err != nil {
				assignRows.Close()
				return fmt.Errorf("failed to scan assignment: %w", err)
			}
			item.AssignedTo = append(item.AssignedTo, personID)
		}
		assignRows.Close()
		if err := assignRows.Err(); err != nil {
			return fmt.Errorf("failed to iterate assignments: %w", err)
		}

		exp.Items = append(exp.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate items: %w", err)
	}

	return nil
}

func insertExpenseTx(ctx context.Context, tx *sql.Tx, exp *models.Expense) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, category,
			amount_minor, currency, entered_amount_minor, entered_currency,
			payer_id, split_type, surcharge_minor, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.GroupID, exp.Description, exp.Category,
		exp.Amount.MinorUnits(), exp.Amount.Currency(),
		exp.EnteredAmount.MinorUnits(), exp.EnteredAmount.Currency(),
		exp.PayerID, string(exp.Split), exp.Surcharge.MinorUnits(),
		exp.Date, exp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, personID := range exp.Participants {
		var exactMinor, shareCount any
		var percentage any
		if amt, ok := exp.ExactAmounts[personID]; ok {
			exactMinor = amt.MinorUnits()
		}
		if pct, ok := exp.Percentages[personID]; ok {
			percentage = pct.String()
		}
		if n, ok := exp.Shares[personID]; ok {
			shareCount = n
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_participants (expense_id, person_id, position, exact_amount_minor, percentage, share_count)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			exp.ID, personID, i, exactMinor, percentage, shareCount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for i := range exp.Items {
		item := &exp.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO items (id, expense_id, description, price_minor) VALUES (?, ?, ?, ?)",
			item.ID, exp.ID, item.Description, item.Price.MinorUnits(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
		for _, personID := range item.AssignedTo {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO item_assignments (item_id, person_id) VALUES (?, ?)",
				item.ID, personID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item assignment: %w", err)
			}
		}
	}

	return nil
}
