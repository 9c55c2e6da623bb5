package models

// Group is the ledger unit: an ordered collection of people and expenses
// sharing one base currency. Balances and settlements are always computed
// over a single group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Currency is the base currency code (ISO 4217) all balances are
	// computed in. Changing it re-converts every expense from its
	// originally entered amount.
	Currency string

	// Members is the ordered list of people in the group. Order is
	// insertion order and is what makes settlement output deterministic.
	Members []Person

	// CreatedBy is the user id of the group's creator, who acts as admin
	// for settlement confirmation overrides.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Member returns the member with the given id, if present.
func (g *Group) Member(id string) (Person, bool) {
	for _, m := range g.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Person{}, false
}

// MemberIDs returns the member ids in insertion order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}
