package rates

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStaticRates(t *testing.T) {
	provider := NewStatic(map[string]decimal.Decimal{
		"USD/EUR": decimal.RequireFromString("0.5"),
		"GBP/USD": decimal.RequireFromString("1.25"),
	})

	tests := []struct {
		name    string
		from    string
		to      string
		want    string
		wantErr bool
	}{
		{name: "direct rate", from: "USD", to: "EUR", want: "0.5"},
		{name: "derived inverse", from: "EUR", to: "USD", want: "2"},
		{name: "second pair", from: "GBP", to: "USD", want: "1.25"},
		{name: "same currency is identity", from: "USD", to: "USD", want: "1"},
		{name: "unknown pair", from: "USD", to: "JPY", wantErr: true},
		{name: "no transitive chaining", from: "EUR", to: "GBP", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := provider.Rate(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Rate(%s, %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if !tt.wantErr && rate.Cmp(decimal.RequireFromString(tt.want)) != 0 {
				t.Errorf("Rate(%s, %s) = %v, want %v", tt.from, tt.to, rate, tt.want)
			}
		})
	}
}

func TestStaticExplicitInverseWins(t *testing.T) {
	provider := NewStatic(map[string]decimal.Decimal{
		"USD/EUR": decimal.RequireFromString("0.5"),
		"EUR/USD": decimal.RequireFromString("1.9"), // asymmetric on purpose
	})

	rate, err := provider.Rate("EUR", "USD")
	if err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if rate.Cmp(decimal.RequireFromString("1.9")) != 0 {
		t.Errorf("explicit inverse rate = %v, want 1.9", rate)
	}
}
