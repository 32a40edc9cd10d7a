package services

import "github.com/shopspring/decimal"

// Commission returns the referral commission for an approved deposit, rounded to cents.
func Commission(amount, rate decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() || !rate.IsPositive() {
		return decimal.Zero
	}
	return amount.Mul(rate).Round(2)
}
