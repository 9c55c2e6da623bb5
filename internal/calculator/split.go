// Package calculator implements the pure computation core: per-expense
// split calculation, balance aggregation across an expense history, and
// greedy debt simplification. Everything here is deterministic and
// side-effect-free; callers pass in a snapshot and own all I/O.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/owwnwrrght/ledgex/internal/models"
	"github.com/owwnwrrght/ledgex/internal/money"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeSplit computes how much each participant owes for one expense.
// The split type is matched exhaustively; an unknown type is an error,
// never a silent skip.
//
// Guarantees: for equal and itemized splits the returned amounts sum
// exactly to the expense total (for itemized, that is the items total
// plus the surcharge). For exact,
// percentage and shares splits the output is only as consistent as the
// caller's input; amounts are validated non-negative but not reconciled
// against the total.
func ComputeSplit(exp *models.Expense) (map[string]money.Amount, error) {
	if len(exp.Participants) == 0 {
		return nil, fmt.Errorf("expense %s: must have at least one participant", exp.ID)
	}

	switch exp.Split {
	case models.SplitEqual:
		return splitEqual(exp.Amount, exp.Participants), nil
	case models.SplitExact:
		return splitExact(exp)
	case models.SplitPercentage:
		return splitPercentage(exp)
	case models.SplitShares:
		return splitShares(exp)
	case models.SplitItemized:
		return splitItemized(exp)
	default:
		return nil, fmt.Errorf("expense %s: unknown split type %q", exp.ID, exp.Split)
	}
}

// splitEqual divides the total evenly. Each share is rounded to the
// currency's precision and the first participant absorbs the remainder,
// so the shares always sum exactly to the total.
func splitEqual(total money.Amount, participants []string) map[string]money.Amount {
	n := int64(len(participants))
	raw := make(map[string]decimal.Decimal, n)
	share := total.DivN(n)
	for _, p := range participants {
		raw[p] = share.Decimal()
	}
	return roundReconciled(raw, participants, total)
}

// splitExact uses the caller-supplied amounts as-is. Participants without
// an entry owe zero. The amounts are not required to sum to the total;
// validation at entry is the caller's responsibility.
func splitExact(exp *models.Expense) (map[string]money.Amount, error) {
	splits := make(map[string]money.Amount, len(exp.Participants))
	for _, p := range exp.Participants {
		amt, ok := exp.ExactAmounts[p]
		if !ok {
			amt = money.Zero(exp.Amount.Currency())
		}
		if amt.IsNegative() {
			return nil, fmt.Errorf("expense %s: negative amount for participant %s", exp.ID, p)
		}
		splits[p] = amt.Round()
	}
	return splits, nil
}

// splitPercentage allocates round(total × pct/100) per participant.
// Rounding residue is not reconciled against the total.
func splitPercentage(exp *models.Expense) (map[string]money.Amount, error) {
	splits := make(map[string]money.Amount, len(exp.Participants))
	for _, p := range exp.Participants {
		pct := exp.Percentages[p]
		if pct.IsNegative() {
			return nil, fmt.Errorf("expense %s: negative percentage for participant %s", exp.ID, p)
		}
		splits[p] = exp.Amount.Mul(pct.Div(oneHundred)).Round()
	}
	return splits, nil
}

// splitShares allocates round(total × share/totalShares) per participant.
// Rounding residue is not reconciled against the total.
func splitShares(exp *models.Expense) (map[string]money.Amount, error) {
	var totalShares int64
	for _, p := range exp.Participants {
		s := exp.Shares[p]
		if s < 0 {
			return nil, fmt.Errorf("expense %s: negative share count for participant %s", exp.ID, p)
		}
		totalShares += s
	}
	if totalShares == 0 {
		return nil, fmt.Errorf("expense %s: total share count must be positive", exp.ID)
	}

	factor := decimal.NewFromInt(totalShares)
	splits := make(map[string]money.Amount, len(exp.Participants))
	for _, p := range exp.Participants {
		weight := decimal.NewFromInt(exp.Shares[p]).Div(factor)
		splits[p] = exp.Amount.Mul(weight).Round()
	}
	return splits, nil
}

// splitItemized derives each participant's share from item assignments:
// every item is split evenly among its assignees, and the surcharge
// (tax/tip) is split evenly across participants who were assigned at
// least one item. People who ordered nothing pay no surcharge.
// The output sums exactly to items total + surcharge.
func splitItemized(exp *models.Expense) (map[string]money.Amount, error) {
	currency := exp.Amount.Currency()
	participants := make(map[string]bool, len(exp.Participants))
	for _, p := range exp.Participants {
		participants[p] = true
	}
	raw := make(map[string]decimal.Decimal, len(exp.Participants))
	itemsTotal := money.Zero(currency)

	for _, item := range exp.Items {
		if len(item.AssignedTo) == 0 {
			return nil, fmt.Errorf("expense %s: item %q has no assignees", exp.ID, item.Description)
		}
		if item.Price.IsNegative() {
			return nil, fmt.Errorf("expense %s: item %q has a negative price", exp.ID, item.Description)
		}
		perAssignee := item.Price.DivN(int64(len(item.AssignedTo))).Decimal()
		for _, p := range item.AssignedTo {
			if !participants[p] {
				return nil, fmt.Errorf("expense %s: item %q is assigned to %s, who is not a participant", exp.ID, item.Description, p)
			}
			raw[p] = raw[p].Add(perAssignee)
		}
		var err error
		if itemsTotal, err = itemsTotal.Add(item.Price); err != nil {
			return nil, fmt.Errorf("expense %s: %w", exp.ID, err)
		}
	}

	// Surcharge goes only to people who appear on some item, in
	// participant order so remainder assignment stays deterministic.
	var withItems []string
	for _, p := range exp.Participants {
		if _, ok := raw[p]; ok {
			withItems = append(withItems, p)
		}
	}
	if len(withItems) == 0 {
		return nil, fmt.Errorf("expense %s: no participant is assigned any item", exp.ID)
	}

	if !exp.Surcharge.IsNegligible() {
		perPerson := exp.Surcharge.DivN(int64(len(withItems))).Decimal()
		for _, p := range withItems {
			raw[p] = raw[p].Add(perPerson)
		}
	}

	target, err := itemsTotal.Add(exp.Surcharge)
	if err != nil {
		return nil, fmt.Errorf("expense %s: %w", exp.ID, err)
	}
	return roundReconciled(raw, withItems, target), nil
}

// roundReconciled rounds the raw per-person values to the currency's
// precision and assigns the rounding residue to the first person in
// order, so the rounded values sum exactly to the target.
func roundReconciled(raw map[string]decimal.Decimal, order []string, target money.Amount) map[string]money.Amount {
	currency := target.Currency()
	digits := money.FractionDigits(currency)

	splits := make(map[string]money.Amount, len(order))
	rest := decimal.Zero
	for _, p := range order[1:] {
		rounded := raw[p].Round(digits)
		splits[p] = money.New(rounded, currency)
		rest = rest.Add(rounded)
	}
	splits[order[0]] = money.New(target.Decimal().Sub(rest), currency).Round()
	return splits
}
