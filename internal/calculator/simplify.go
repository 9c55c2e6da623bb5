package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/owwnwrrght/ledgex/internal/money"
)

// Transfer is one direct payment in the simplified-debt set.
type Transfer struct {
	FromPersonID string // who pays
	ToPersonID   string // who receives
	Amount       money.Amount
}

type party struct {
	personID string
	amount   decimal.Decimal // remaining magnitude, always positive
}

// SimplifyDebts reduces net balances to a minimal set of direct transfers
// with the same net effect.
//
// Greedy matching: creditors and debtors are each sorted descending by
// magnitude (ties keep input order), then the largest remaining pair is
// settled for min(credit, debt) until one side is exhausted. Transfers
// below one minor unit are rounding noise and are dropped.
//
// This never fails: a group with no creditors or no debtors simply yields
// no transfers. The emitted transfers reconstruct every balance within the
// rounding threshold, and their count is at most one less than the number
// of people with a nonzero balance.
func SimplifyDebts(balances []PersonBalance, currency string) []Transfer {
	threshold := decimal.New(1, -money.FractionDigits(currency))

	var creditors, debtors []party
	for _, bal := range balances {
		net := bal.Net.Decimal()
		switch {
		case net.Cmp(threshold) >= 0:
			creditors = append(creditors, party{bal.PersonID, net})
		case net.Neg().Cmp(threshold) >= 0:
			debtors = append(debtors, party{bal.PersonID, net.Neg()})
		}
	}

	sort.SliceStable(creditors, func(i, j int) bool {
		return creditors[i].amount.Cmp(creditors[j].amount) > 0
	})
	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].amount.Cmp(debtors[j].amount) > 0
	})

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		amount := debtor.amount
		if creditor.amount.Cmp(amount) < 0 {
			amount = creditor.amount
		}

		if amount.Cmp(threshold) >= 0 {
			transfers = append(transfers, Transfer{
				FromPersonID: debtor.personID,
				ToPersonID:   creditor.personID,
				Amount:       money.New(amount, currency).Round(),
			})
		}

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)

		if debtor.amount.Cmp(threshold) < 0 {
			i++
		}
		if creditor.amount.Cmp(threshold) < 0 {
			j++
		}
	}

	return transfers
}
