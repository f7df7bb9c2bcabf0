// Package rounding holds the fixed-point helpers used to turn human prices and
// sizes into on-chain integer amounts.
package rounding

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundDown truncates x towards negative infinity at d decimal places.
// Values that already fit in d places are returned untouched.
func RoundDown(x decimal.Decimal, d int32) decimal.Decimal {
	if DecimalPlaces(x) <= d {
		return x
	}
	return x.RoundFloor(d)
}

// RoundUp rounds x towards positive infinity at d decimal places.
func RoundUp(x decimal.Decimal, d int32) decimal.Decimal {
	if DecimalPlaces(x) <= d {
		return x
	}
	return x.RoundCeil(d)
}

// RoundNormal rounds x to the nearest value with d decimal places, half away from zero.
func RoundNormal(x decimal.Decimal, d int32) decimal.Decimal {
	if DecimalPlaces(x) <= d {
		return x
	}
	return x.Round(d)
}

// DecimalPlaces counts significant fractional digits ("1.50" has one).
func DecimalPlaces(x decimal.Decimal) int32 {
	if x.Exponent() >= 0 {
		return 0
	}
	s := x.String()
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return int32(len(s) - i - 1)
}

// ToBaseUnits scales x by 10^decimals and returns the integer result.
// x must not carry more than decimals fractional digits.
func ToBaseUnits(x decimal.Decimal, decimals int32) (*big.Int, error) {
	if x.IsNegative() {
		return nil, fmt.Errorf("negative amount %s", x)
	}
	if DecimalPlaces(x) > decimals {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", x, decimals)
	}
	return x.Shift(decimals).BigInt(), nil
}

// FromBaseUnits is the inverse of ToBaseUnits.
func FromBaseUnits(v *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(v, -decimals)
}
