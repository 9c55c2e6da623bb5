// Package money provides exact decimal amounts paired with a currency.
//
// All arithmetic goes through shopspring/decimal; floating point is never
// used because repeated division and redistribution of cents across many
// participants accumulates visible rounding error. Comparisons that ask
// "did this amount effectively change" use a one-minor-unit tolerance so
// that repeated recomputation does not churn persisted state.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal value in a single currency.
// The zero value is 0 in an unset currency and is usable as an
// accumulator seed via Add.
type Amount struct {
	value    decimal.Decimal
	currency string
}

// New creates an Amount from a decimal value and a currency code.
// The value is kept at full precision; use Round to snap it to the
// currency's canonical fraction digits.
func New(value decimal.Decimal, currency string) Amount {
	return Amount{value: value, currency: currency}
}

// FromMinorUnits creates an Amount from an integer count of the currency's
// minor units (e.g. cents for USD, whole yen for JPY).
func FromMinorUnits(units int64, currency string) Amount {
	return Amount{
		value:    decimal.New(units, -FractionDigits(currency)),
		currency: currency,
	}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Amount {
	return Amount{currency: currency}
}

// Parse creates an Amount from a decimal string such as "12.50".
func Parse(s, currency string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{value: d, currency: currency}, nil
}

// Currency returns the amount's currency code.
func (a Amount) Currency() string { return a.currency }

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.value }

// MinorUnits returns the amount rounded to the currency's precision,
// expressed as an integer count of minor units. This is the storage
// representation.
func (a Amount) MinorUnits() int64 {
	digits := FractionDigits(a.currency)
	return a.value.Round(digits).Shift(digits).IntPart()
}

// Round snaps the amount to the currency's canonical fraction digits
// using half-up rounding.
func (a Amount) Round() Amount {
	return Amount{value: a.value.Round(FractionDigits(a.currency)), currency: a.currency}
}

// Add returns a+b. Adding two different currencies is a programming
// error and returns one. A zero-value accumulator adopts b's currency.
func (a Amount) Add(b Amount) (Amount, error) {
	if a.currency == "" {
		return b, nil
	}
	if b.currency == "" {
		return a, nil
	}
	if a.currency != b.currency {
		return Amount{}, fmt.Errorf("currency mismatch: %s + %s", a.currency, b.currency)
	}
	return Amount{value: a.value.Add(b.value), currency: a.currency}, nil
}

// Sub returns a-b under the same currency rules as Add.
func (a Amount) Sub(b Amount) (Amount, error) {
	return a.Add(b.Neg())
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{value: a.value.Neg(), currency: a.currency}
}

// Mul returns a scaled by the given factor, at full precision.
func (a Amount) Mul(factor decimal.Decimal) Amount {
	return Amount{value: a.value.Mul(factor), currency: a.currency}
}

// DivN returns a divided by n at full precision. Callers are responsible
// for rounding and for reconciling any remainder against the total.
func (a Amount) DivN(n int64) Amount {
	return Amount{value: a.value.Div(decimal.NewFromInt(n)), currency: a.currency}
}

// Cmp compares a and b, ignoring currency. Returns -1, 0 or 1.
func (a Amount) Cmp(b Amount) int {
	return a.value.Cmp(b.value)
}

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool { return a.value.IsPositive() }

// IsNegative reports whether a < 0.
func (a Amount) IsNegative() bool { return a.value.IsNegative() }

// IsNegligible reports whether |a| is below one minor unit of its
// currency. Transfers and balance deltas under this threshold are
// rounding noise, not debts.
func (a Amount) IsNegligible() bool {
	return a.value.Abs().Cmp(minorUnit(a.currency)) < 0
}

// ApproxEqual reports whether a and b differ by less than one minor unit.
// Used to decide whether a recomputed amount "effectively changed".
func (a Amount) ApproxEqual(b Amount) bool {
	if a.currency != "" && b.currency != "" && a.currency != b.currency {
		return false
	}
	return a.value.Sub(b.value).Abs().Cmp(minorUnit(a.currency)) < 0
}

// String formats the amount at the currency's precision, e.g. "12.50 USD".
func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.value.StringFixed(FractionDigits(a.currency)), a.currency)
}

func minorUnit(currency string) decimal.Decimal {
	return decimal.New(1, -FractionDigits(currency))
}
