package money

// fractionDigits lists currencies whose canonical number of fractional
// digits differs from the default of 2 (ISO 4217 minor units).
var fractionDigits = map[string]int32{
	// zero-decimal currencies
	"BIF": 0,
	"CLP": 0,
	"DJF": 0,
	"GNF": 0,
	"ISK": 0,
	"JPY": 0,
	"KMF": 0,
	"KRW": 0,
	"PYG": 0,
	"RWF": 0,
	"UGX": 0,
	"VND": 0,
	"VUV": 0,
	"XAF": 0,
	"XOF": 0,
	"XPF": 0,

	// three-decimal currencies
	"BHD": 3,
	"IQD": 3,
	"JOD": 3,
	"KWD": 3,
	"LYD": 3,
	"OMR": 3,
	"TND": 3,
}

// FractionDigits returns the canonical number of fractional digits for a
// currency code. Unknown (and empty) codes default to 2, which covers the
// vast majority of currencies.
func FractionDigits(currency string) int32 {
	if d, ok := fractionDigits[currency]; ok {
		return d
	}
	return 2
}
