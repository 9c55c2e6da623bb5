package sqlite

import (
	"context"
	"fmt"

	"github.com/owwnwrrght/ledgex/internal/models"
	"github.com/owwnwrrght/ledgex/internal/money"
	"github.com/owwnwrrght/ledgex/internal/storage"
)

// ListSettlementReceipts retrieves a group's receipt set.
func (s *SQLiteStore) ListSettlementReceipts(ctx context.Context, groupID string) ([]models.SettlementReceipt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id, from_person_id, to_person_id, amount_minor, currency, is_received, updated_at
		 FROM settlement_receipts WHERE group_id = ? ORDER BY from_person_id, to_person_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlement receipts: %w", err)
	}
	defer rows.Close()

	var receipts []models.SettlementReceipt
	for rows.Next() {
		var r models.SettlementReceipt
		var amountMinor int64
		var currency string
		if err := rows.Scan(&r.GroupID, &r.FromPersonID, &r.ToPersonID,
			&amountMinor, &currency, &r.IsReceived, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement receipt: %w", err)
		}
		r.Amount = money.FromMinorUnits(amountMinor, currency)
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlement receipts: %w", err)
	}
	return receipts, nil
}

// SetSettlementReceipts replaces a group's receipt set in one transaction.
// Receipts absent from the new set are dropped; the debt they tracked no
// longer exists.
func (s *SQLiteStore) SetSettlementReceipts(ctx context.Context, groupID string, receipts []models.SettlementReceipt) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM settlement_receipts WHERE group_id = ?", groupID); err != nil {
		return fmt.Errorf("failed to clear settlement receipts: %w", err)
	}

	for _, r := range receipts {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settlement_receipts (group_id, from_person_id, to_person_id, amount_minor, currency, is_received, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			groupID, r.FromPersonID, r.ToPersonID,
			r.Amount.MinorUnits(), r.Amount.Currency(), r.IsReceived, r.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement receipt: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetReceiptReceived toggles the IsReceived flag on one receipt.
func (s *SQLiteStore) SetReceiptReceived(ctx context.Context, groupID, fromPersonID, toPersonID string, received bool, now int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE settlement_receipts SET is_received = ?, updated_at = ?
		 WHERE group_id = ? AND from_person_id = ? AND to_person_id = ?`,
		received, now, groupID, fromPersonID, toPersonID,
	)
	if err != nil {
		return fmt.Errorf("failed to update settlement receipt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("receipt %s→%s in group %s: %w", fromPersonID, toPersonID, groupID, storage.ErrNotFound)
	}
	return nil
}
