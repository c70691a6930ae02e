package cms

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// PriceToCents converts a dollar amount to integer cents, rounding half
// away from zero. Negative prices are rejected.
func PriceToCents(price decimal.Decimal) (int64, error) {
	if price.IsNegative() {
		return 0, fmt.Errorf("negative price %s", price.String())
	}
	return price.Mul(hundred).Round(0).IntPart(), nil
}
