package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/Giorgio223/ton-pvp-app/models"
)

// lockAccount takes the row lock that serializes every balance-decreasing operation on address.
func lockAccount(ctx context.Context, tx *sqlx.Tx, address string) error {
	var locked string
	err := tx.GetContext(ctx, &locked, `SELECT address FROM accounts WHERE address = $1 FOR UPDATE`, address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.Wrapf(ErrNotFound, "account %s", address)
		}
		return errors.Wrap(err, "lock account")
	}
	return nil
}

// checkFunds locks the account and verifies the balance covers amount. The lock is held until
// the transaction ends, so the caller's subsequent negative append cannot race another hold.
// An address without an account row has a zero balance.
func checkFunds(ctx context.Context, tx *sqlx.Tx, address string, amount decimal.Decimal) error {
	if err := lockAccount(ctx, tx, address); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errors.Wrapf(ErrInsufficientFunds, "no account for %s", address)
		}
		return err
	}
	balance, err := balanceOf(ctx, tx, address)
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return errors.Wrapf(ErrInsufficientFunds, "balance %s, requested %s", balance, amount)
	}
	return nil
}

// holdFunds is checkFunds followed by the negative entry, in the caller's transaction.
func holdFunds(ctx context.Context, tx *sqlx.Tx, address string, amount decimal.Decimal, reason models.Reason, reference *int64) error {
	if err := checkFunds(ctx, tx, address, amount); err != nil {
		return err
	}
	return appendEntry(ctx, tx, address, amount.Neg(), reason, reference)
}

// releaseFunds reverses a withdrawal hold. It appends nothing and returns false when a release
// for the same reference already exists.
func releaseFunds(ctx context.Context, tx *sqlx.Tx, address string, amount decimal.Decimal, reference int64) (bool, error) {
	released, err := hasEntry(ctx, tx, address, models.ReasonWithdrawRelease, reference)
	if err != nil {
		return false, err
	}
	if released {
		return false, nil
	}
	if err := appendEntry(ctx, tx, address, amount, models.ReasonWithdrawRelease, &reference); err != nil {
		return false, err
	}
	return true, nil
}
