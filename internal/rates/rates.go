// Package rates abstracts currency conversion behind a pure rate lookup.
// The core multiplies an entered amount by the rate exactly once, at
// expense write time; it never chains conversions.
package rates

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Provider supplies a conversion rate between two currency codes.
type Provider interface {
	// Rate returns the multiplier converting an amount in `from` into
	// `to`. A currency converts to itself at rate 1.
	Rate(from, to string) (decimal.Decimal, error)
}

// Static is a Provider backed by a fixed rate table. It covers tests and
// single-currency deployments; a production host plugs in a live provider
// with the same interface.
type Static struct {
	rates map[string]decimal.Decimal // key: "FROM/TO"
}

// NewStatic creates a Static provider from a FROM/TO → rate table.
// Inverse rates are derived automatically when not supplied.
func NewStatic(table map[string]decimal.Decimal) *Static {
	rates := make(map[string]decimal.Decimal, 2*len(table))
	for key, rate := range table {
		rates[key] = rate
	}
	for key, rate := range table {
		inverse := invertKey(key)
		if _, ok := rates[inverse]; !ok && !rate.IsZero() {
			rates[inverse] = decimal.NewFromInt(1).Div(rate)
		}
	}
	return &Static{rates: rates}
}

// Rate implements Provider.
func (s *Static) Rate(from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	if rate, ok := s.rates[from+"/"+to]; ok {
		return rate, nil
	}
	return decimal.Decimal{}, fmt.Errorf("no rate for %s/%s", from, to)
}

func invertKey(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[i+1:] + "/" + key[:i]
		}
	}
	return key
}
