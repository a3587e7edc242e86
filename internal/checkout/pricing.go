package checkout

import (
	"github.com/shopspring/decimal"
)

var (
	oneHundred = decimal.NewFromInt(100)

	// totalTolerance absorbs rounding drift when comparing a freshly computed
	// total against one stored earlier.
	totalTolerance = decimal.NewFromFloat(0.01)
)

// unitPriceAfterDiscount applies the product's discount percentage to its list
// price, rounded to cents. This is the only place a sale price is computed;
// client-supplied amounts are never read.
func unitPriceAfterDiscount(price, discountPercent decimal.Decimal) decimal.Decimal {
	if discountPercent.IsZero() {
		return price.Round(2)
	}
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(oneHundred))
	return price.Mul(factor).Round(2)
}

// toCents converts a currency amount to the integer minor units Stripe expects.
func toCents(amount decimal.Decimal) int64 {
	return amount.Mul(oneHundred).Round(0).IntPart()
}

// totalsMatch reports whether two order totals agree within rounding tolerance.
func totalsMatch(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(totalTolerance)
}
