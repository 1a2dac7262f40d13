package service

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/Giorgio223/ton-pvp-app/pkg/repository"
)

var (
	ErrNotFound          = repository.ErrNotFound
	ErrInsufficientFunds = repository.ErrInsufficientFunds
	ErrBadStatus         = repository.ErrBadStatus

	// ErrPayoutNotSent is wrapped by gateways that know for certain nothing was broadcast.
	// Any other payout error is treated as an unknown on-chain outcome.
	ErrPayoutNotSent = errors.New("payout not sent")
)

// StorageError is returned when a transaction could not be committed. Nothing was persisted.
type StorageError = repository.StorageError

// ValidationError is returned before any state change.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// PayoutError reports a failed or timed out gateway call. By the time it is returned the
// withdrawal has been moved to failed and its hold released.
type PayoutError struct {
	WithdrawalID int64
	Err          error
}

func (e *PayoutError) Error() string {
	return fmt.Sprintf("payout of withdrawal %d failed: %v", e.WithdrawalID, e.Err)
}

func (e *PayoutError) Unwrap() error {
	return e.Err
}

// Ambiguous reports whether the transfer may have reached the chain.
func (e *PayoutError) Ambiguous() bool {
	return !errors.Is(e.Err, ErrPayoutNotSent)
}
