package server

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/owwnwrrght/ledgex/internal/calculator"
	"github.com/owwnwrrght/ledgex/internal/models"
	"github.com/owwnwrrght/ledgex/internal/money"
)

// Monetary values cross the wire as decimal strings ("12.50"), never as
// floats; the currency rides alongside.

type personPayload struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type groupPayload struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Currency  string          `json:"currency"`
	Members   []personPayload `json:"members"`
	CreatedBy string          `json:"created_by"`
	CreatedAt int64           `json:"created_at"`
}

func groupToPayload(g *models.Group) groupPayload {
	members := make([]personPayload, len(g.Members))
	for i, m := range g.Members {
		members[i] = personPayload{ID: m.ID, Name: m.Name}
	}
	return groupPayload{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		Members:   members,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

type itemPayload struct {
	ID          string   `json:"id,omitempty"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	AssignedTo  []string `json:"assigned_to"`
}

type expensePayload struct {
	ID           string            `json:"id,omitempty"`
	Description  string            `json:"description"`
	Category     string            `json:"category,omitempty"`
	Amount       string            `json:"amount"`
	Currency     string            `json:"currency,omitempty"`
	PayerID      string            `json:"payer_id"`
	SplitType    string            `json:"split_type"`
	Participants []string          `json:"participants"`
	ExactAmounts map[string]string `json:"exact_amounts,omitempty"`
	Percentages  map[string]string `json:"percentages,omitempty"`
	Shares       map[string]int64  `json:"shares,omitempty"`
	Items        []itemPayload     `json:"items,omitempty"`
	Surcharge    string            `json:"surcharge,omitempty"`
	Date         int64             `json:"date,omitempty"`
	CreatedAt    int64             `json:"created_at,omitempty"`
}

// toModel converts the payload into an Expense. The entered amount keeps
// its own currency; everything else (exact amounts, item prices,
// surcharge) is interpreted in the group's base currency.
func (p *expensePayload) toModel(baseCurrency string) (*models.Expense, error) {
	entryCurrency := p.Currency
	if entryCurrency == "" {
		entryCurrency = baseCurrency
	}

	entered, err := money.Parse(p.Amount, entryCurrency)
	if err != nil {
		return nil, err
	}

	exp := &models.Expense{
		ID:            p.ID,
		Description:   p.Description,
		Category:      p.Category,
		EnteredAmount: entered,
		PayerID:       p.PayerID,
		Split:         models.SplitType(p.SplitType),
		Participants:  p.Participants,
		Shares:        p.Shares,
		Date:          p.Date,
	}

	if len(p.ExactAmounts) > 0 {
		exp.ExactAmounts = make(map[string]money.Amount, len(p.ExactAmounts))
		for id, s := range p.ExactAmounts {
			if exp.ExactAmounts[id], err = money.Parse(s, baseCurrency); err != nil {
				return nil, err
			}
		}
	}

	if len(p.Percentages) > 0 {
		exp.Percentages = make(map[string]decimal.Decimal, len(p.Percentages))
		for id, s := range p.Percentages {
			pct, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("invalid percentage %q: %w", s, err)
			}
			exp.Percentages[id] = pct
		}
	}

	for _, item := range p.Items {
		price, err := money.Parse(item.Price, baseCurrency)
		if err != nil {
			return nil, err
		}
		exp.Items = append(exp.Items, models.Item{
			ID:          item.ID,
			Description: item.Description,
			Price:       price,
			AssignedTo:  item.AssignedTo,
		})
	}

	if p.Surcharge != "" {
		if exp.Surcharge, err = money.Parse(p.Surcharge, baseCurrency); err != nil {
			return nil, err
		}
	}

	return exp, nil
}

func expenseToPayload(exp *models.Expense) expensePayload {
	digits := money.FractionDigits(exp.Amount.Currency())
	p := expensePayload{
		ID:           exp.ID,
		Description:  exp.Description,
		Category:     exp.Category,
		Amount:       exp.Amount.Decimal().StringFixed(digits),
		Currency:     exp.Amount.Currency(),
		PayerID:      exp.PayerID,
		SplitType:    string(exp.Split),
		Participants: exp.Participants,
		Shares:       exp.Shares,
		Date:         exp.Date,
		CreatedAt:    exp.CreatedAt,
	}

	if len(exp.ExactAmounts) > 0 {
		p.ExactAmounts = make(map[string]string, len(exp.ExactAmounts))
		for id, amt := range exp.ExactAmounts {
			p.ExactAmounts[id] = amt.Decimal().StringFixed(digits)
		}
	}
	if len(exp.Percentages) > 0 {
		p.Percentages = make(map[string]string, len(exp.Percentages))
		for id, pct := range exp.Percentages {
			p.Percentages[id] = pct.String()
		}
	}
	for _, item := range exp.Items {
		p.Items = append(p.Items, itemPayload{
			ID:          item.ID,
			Description: item.Description,
			Price:       item.Price.Decimal().StringFixed(digits),
			AssignedTo:  item.AssignedTo,
		})
	}
	if !exp.Surcharge.IsNegligible() {
		p.Surcharge = exp.Surcharge.Decimal().StringFixed(digits)
	}
	return p
}

type balancePayload struct {
	PersonID  string `json:"person_id"`
	TotalPaid string `json:"total_paid"`
	TotalOwed string `json:"total_owed"`
	Net       string `json:"net"`
}

func balancesToPayload(balances []calculator.PersonBalance, currency string) []balancePayload {
	digits := money.FractionDigits(currency)
	out := make([]balancePayload, len(balances))
	for i, b := range balances {
		out[i] = balancePayload{
			PersonID:  b.PersonID,
			TotalPaid: b.TotalPaid.Decimal().StringFixed(digits),
			TotalOwed: b.TotalOwed.Decimal().StringFixed(digits),
			Net:       b.Net.Decimal().StringFixed(digits),
		}
	}
	return out
}

type receiptPayload struct {
	FromPersonID string `json:"from_person_id"`
	ToPersonID   string `json:"to_person_id"`
	Amount       string `json:"amount"`
	Currency     string `json:"currency"`
	IsReceived   bool   `json:"is_received"`
	UpdatedAt    int64  `json:"updated_at"`
}

func receiptsToPayload(receipts []models.SettlementReceipt) []receiptPayload {
	out := make([]receiptPayload, len(receipts))
	for i, r := range receipts {
		currency := r.Amount.Currency()
		out[i] = receiptPayload{
			FromPersonID: r.FromPersonID,
			ToPersonID:   r.ToPersonID,
			Amount:       r.Amount.Decimal().StringFixed(money.FractionDigits(currency)),
			Currency:     currency,
			IsReceived:   r.IsReceived,
			UpdatedAt:    r.UpdatedAt,
		}
	}
	return out
}

type userPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

func userToPayload(u *models.User) userPayload {
	return userPayload{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}
