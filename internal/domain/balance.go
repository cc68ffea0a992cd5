package domain

import "github.com/shopspring/decimal"

// SplitBalance projects a net balance into its dues/credit parts.
// Positive balance is owed to the shop, negative means the customer has
// prepaid; exactly one of the two results is non-zero unless both are zero.
func SplitBalance(charges, paid decimal.Decimal) (dues, credit decimal.Decimal) {
	balance := charges.Sub(paid)
	if balance.IsNegative() {
		return decimal.Zero, balance.Neg()
	}
	return balance, decimal.Zero
}
