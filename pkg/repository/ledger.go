package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/Giorgio223/ton-pvp-app/models"
)

// appendEntry is the only write path into ledger_entries.
func appendEntry(ctx context.Context, q sqlx.ExtContext, address string, delta decimal.Decimal, reason models.Reason, reference *int64) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO ledger_entries (address, delta, reason, reference)
		VALUES ($1, $2, $3, $4)
	`, address, delta, reason, reference)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(ErrDuplicate, "%s entry for reference %v", reason, derefRef(reference))
		}
		return errors.Wrap(err, "append ledger entry")
	}
	return nil
}

func balanceOf(ctx context.Context, q sqlx.QueryerContext, address string) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := sqlx.GetContext(ctx, q, &balance, `
		SELECT COALESCE(SUM(delta), 0) FROM ledger_entries WHERE address = $1
	`, address)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "sum ledger entries")
	}
	return balance, nil
}

func hasEntry(ctx context.Context, q sqlx.QueryerContext, address string, reason models.Reason, reference int64) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM ledger_entries WHERE address = $1 AND reason = $2 AND reference = $3
		)
	`, address, reason, reference)
	if err != nil {
		return false, errors.Wrap(err, "lookup ledger entry")
	}
	return exists, nil
}

func ensureAccount(ctx context.Context, q sqlx.ExtContext, address string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (address) VALUES ($1) ON CONFLICT (address) DO NOTHING
	`, address)
	return errors.Wrap(err, "ensure account")
}

func derefRef(reference *int64) interface{} {
	if reference == nil {
		return nil
	}
	return *reference
}

type LedgerPostgres struct {
	db *sqlx.DB
}

func NewLedgerPostgres(db *sqlx.DB) *LedgerPostgres {
	return &LedgerPostgres{db: db}
}

// Append writes a single entry without any solvency check. Callers that move balance down must use Charge.
func (r *LedgerPostgres) Append(ctx context.Context, address string, delta decimal.Decimal, reason models.Reason, reference *int64) error {
	return withTx(ctx, r.db, "ledger append", func(tx *sqlx.Tx) error {
		if err := ensureAccount(ctx, tx, address); err != nil {
			return err
		}
		return appendEntry(ctx, tx, address, delta, reason, reference)
	})
}

func (r *LedgerPostgres) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	balance, err := balanceOf(ctx, r.db, address)
	return balance, storageErr("ledger balance", err)
}

func (r *LedgerPostgres) Entries(ctx context.Context, address string, limit int) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, address, delta, reason, reference, created_at
		FROM ledger_entries
		WHERE address = $1
		ORDER BY id DESC
		LIMIT $2
	`, address, limit)
	if err != nil {
		return nil, storageErr("ledger entries", err)
	}
	return entries, nil
}

// Charge debits amount through the balance guard. A repeated reference is a no-op and returns false.
func (r *LedgerPostgres) Charge(ctx context.Context, address string, amount decimal.Decimal, reason models.Reason, reference int64) (bool, error) {
	applied := false
	err := withTx(ctx, r.db, "ledger charge", func(tx *sqlx.Tx) error {
		if err := lockAccount(ctx, tx, address); err != nil {
			return err
		}
		exists, err := hasEntry(ctx, tx, address, reason, reference)
		if err != nil || exists {
			return err
		}
		if err := holdFunds(ctx, tx, address, amount, reason, &reference); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return false, ErrInsufficientFunds
	}
	return applied, err
}

// Credit appends a positive entry once per reference.
func (r *LedgerPostgres) Credit(ctx context.Context, address string, amount decimal.Decimal, reason models.Reason, reference int64) (bool, error) {
	applied := false
	err := withTx(ctx, r.db, "ledger credit", func(tx *sqlx.Tx) error {
		if err := ensureAccount(ctx, tx, address); err != nil {
			return err
		}
		if err := lockAccount(ctx, tx, address); err != nil {
			return err
		}
		exists, err := hasEntry(ctx, tx, address, reason, reference)
		if err != nil || exists {
			return err
		}
		if err := appendEntry(ctx, tx, address, amount, reason, &reference); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}
