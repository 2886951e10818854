package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// minorUnitExponent lists currencies whose smallest unit is not 1/100.
var minorUnitExponent = map[string]int32{
	"JPY": 0,
	"XOF": 0,
}

func exponentFor(currency string) int32 {
	if exp, ok := minorUnitExponent[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// ToMinorUnits converts a major-unit amount (naira, dollars) into the
// provider's integer representation (kobo, cents), rounding half away from zero.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	return amount.Shift(exponentFor(currency)).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -exponentFor(currency))
}

// FormatPrice renders an amount for display, e.g. "NGN 15,000.00".
func FormatPrice(amount decimal.Decimal, currency string) string {
	exp := exponentFor(currency)
	fixed := amount.StringFixed(exp)

	intPart, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i:]
	}

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign, intPart = "-", intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	return fmt.Sprintf("%s %s%s%s", strings.ToUpper(currency), sign, b.String(), frac)
}
