package quote

import (
	"math"

	"github.com/shopspring/decimal"
)

// tokenScale is the number of decimal places in one whole token.
const tokenScale = 9

var maxBaseUnits = decimal.NewFromInt(math.MaxInt64)

// ParseTokenAmount converts a decimal token string ("1.5") to base units at
// the 1e9 fixed-point scale. Amounts that are negative, carry more than nine
// decimal places, or overflow int64 fail with ErrInvalidAmount.
func ParseTokenAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}

	base := d.Shift(tokenScale)
	if !base.IsInteger() {
		return 0, ErrInvalidAmount // precision beyond the fixed-point scale
	}
	if base.Cmp(maxBaseUnits) > 0 {
		return 0, ErrInvalidAmount
	}
	return base.IntPart(), nil
}
