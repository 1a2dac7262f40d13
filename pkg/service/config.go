package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalConfig is fixed at construction. Amounts are in nanotons.
type WithdrawalConfig struct {
	MinAmount decimal.Decimal
	// AutoPayoutCeiling is the largest amount paid without admin review. Zero disables auto-pay.
	AutoPayoutCeiling decimal.Decimal
	PayoutTimeout     time.Duration
	// StaleAfter is how long a withdrawal may sit in processing before it is reported.
	StaleAfter time.Duration
}

func (c WithdrawalConfig) autoPay(amount decimal.Decimal) bool {
	return c.AutoPayoutCeiling.IsPositive() && amount.LessThanOrEqual(c.AutoPayoutCeiling)
}

func (c WithdrawalConfig) withDefaults() WithdrawalConfig {
	if c.PayoutTimeout <= 0 {
		c.PayoutTimeout = 30 * time.Second
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 10 * time.Minute
	}
	return c
}
