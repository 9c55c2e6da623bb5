package calculator

import (
	"fmt"
	"log/slog"

	"github.com/owwnwrrght/ledgex/internal/models"
	"github.com/owwnwrrght/ledgex/internal/money"
)

// PersonBalance is one member's position over an expense set.
type PersonBalance struct {
	PersonID string

	// TotalPaid is the sum of expense totals this person paid for.
	TotalPaid money.Amount

	// TotalOwed is the sum of this person's shares across all expenses.
	TotalOwed money.Amount

	// Net is TotalPaid - TotalOwed.
	// Positive = net creditor (is owed), negative = net debtor (owes).
	Net money.Amount
}

// AggregateBalances folds the full expense history into a net balance per
// member. It is a full recomputation from scratch on every call; there is
// deliberately no incremental update path, which trades a little CPU for
// immunity to drift bugs. The fold is associative and commutative across
// expenses, so expense order does not matter.
//
// Expenses whose payer is no longer a member are skipped with a warning
// (a removed person's history must not abort the rest), as are split
// entries for departed participants. Balances are returned in member
// order.
func AggregateBalances(expenses []*models.Expense, memberIDs []string, currency string) ([]PersonBalance, error) {
	balances := make(map[string]*PersonBalance, len(memberIDs))
	for _, id := range memberIDs {
		balances[id] = &PersonBalance{
			PersonID:  id,
			TotalPaid: money.Zero(currency),
			TotalOwed: money.Zero(currency),
		}
	}

	for _, exp := range expenses {
		payer, ok := balances[exp.PayerID]
		if !ok {
			slog.Warn("skipping expense: payer is not a group member",
				"expense_id", exp.ID,
				"payer_id", exp.PayerID,
			)
			continue
		}

		splits, err := ComputeSplit(exp)
		if err != nil {
			return nil, fmt.Errorf("failed to compute split: %w", err)
		}

		if payer.TotalPaid, err = payer.TotalPaid.Add(exp.Amount); err != nil {
			return nil, fmt.Errorf("expense %s: %w", exp.ID, err)
		}

		for participant, owed := range splits {
			bal, ok := balances[participant]
			if !ok {
				slog.Warn("skipping split entry: participant is not a group member",
					"expense_id", exp.ID,
					"person_id", participant,
				)
				continue
			}
			if bal.TotalOwed, err = bal.TotalOwed.Add(owed); err != nil {
				return nil, fmt.Errorf("expense %s: %w", exp.ID, err)
			}
		}
	}

	result := make([]PersonBalance, 0, len(memberIDs))
	for _, id := range memberIDs {
		bal := balances[id]
		net, err := bal.TotalPaid.Sub(bal.TotalOwed)
		if err != nil {
			return nil, fmt.Errorf("person %s: %w", id, err)
		}
		bal.Net = net
		result = append(result, *bal)
	}
	return result, nil
}
