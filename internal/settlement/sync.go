// Package settlement reconciles a freshly computed simplified-debt set
// against previously recorded settlement receipts, so that "already marked
// as paid" confirmations survive recomputation when the underlying amounts
// have not changed.
package settlement

import (
	"github.com/owwnwrrght/ledgex/internal/calculator"
	"github.com/owwnwrrght/ledgex/internal/models"
)

// Sync merges new transfers with the prior receipt list and returns the
// authoritative receipt set, in transfer order.
//
// For each (from, to) pair in the new transfer list:
//   - a prior receipt with an unchanged amount (within one minor unit)
//     keeps its IsReceived flag and timestamp untouched;
//   - a prior receipt whose amount moved gets the new amount, IsReceived
//     reset to false, and a fresh timestamp; a confirmation of a debt
//     that has since changed is stale and must not carry over;
//   - a pair with no prior receipt gets a new unconfirmed receipt.
//
// Prior receipts whose pair does not appear in the new transfers are not
// carried forward: the debt no longer exists, so there is nothing left to
// track. Running Sync twice with no intervening changes yields an
// identical list.
func Sync(groupID string, transfers []calculator.Transfer, prior []models.SettlementReceipt, now int64) []models.SettlementReceipt {
	type pair struct{ from, to string }
	previous := make(map[pair]models.SettlementReceipt, len(prior))
	for _, r := range prior {
		previous[pair{r.FromPersonID, r.ToPersonID}] = r
	}

	receipts := make([]models.SettlementReceipt, 0, len(transfers))
	for _, t := range transfers {
		if old, ok := previous[pair{t.FromPersonID, t.ToPersonID}]; ok && old.Amount.ApproxEqual(t.Amount) {
			receipts = append(receipts, old)
			continue
		}
		receipts = append(receipts, models.SettlementReceipt{
			GroupID:      groupID,
			FromPersonID: t.FromPersonID,
			ToPersonID:   t.ToPersonID,
			Amount:       t.Amount,
			IsReceived:   false,
			UpdatedAt:    now,
		})
	}
	return receipts
}
