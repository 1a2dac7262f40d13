package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Giorgio223/ton-pvp-app/models"
)

const depositColumns = `id, address, amount, correlation_tag, status, external_tx_reference, created_at, confirmed_at`

type DepositPostgres struct {
	db *sqlx.DB
}

func NewDepositPostgres(db *sqlx.DB) *DepositPostgres {
	return &DepositPostgres{db: db}
}

// CreateDeposit returns ErrDuplicate when the correlation tag is already taken.
func (r *DepositPostgres) CreateDeposit(ctx context.Context, in models.DepositInput) (models.Deposit, error) {
	var d models.Deposit
	err := withTx(ctx, r.db, "create deposit", func(tx *sqlx.Tx) error {
		if err := ensureAccount(ctx, tx, in.Address); err != nil {
			return err
		}
		err := tx.GetContext(ctx, &d, `
			INSERT INTO deposits (address, amount, correlation_tag)
			VALUES ($1, $2, $3)
			RETURNING `+depositColumns,
			in.Address, in.Amount, in.CorrelationTag)
		if err != nil {
			if isUniqueViolation(err) {
				return errors.Wrapf(ErrDuplicate, "correlation tag %s", in.CorrelationTag)
			}
			return errors.Wrap(err, "insert deposit")
		}
		return nil
	})
	if err != nil {
		return models.Deposit{}, err
	}
	return d, nil
}

func (r *DepositPostgres) GetDeposit(ctx context.Context, id int64) (models.Deposit, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *DepositPostgres) GetDepositByTag(ctx context.Context, tag string) (models.Deposit, error) {
	return r.getBy(ctx, `correlation_tag = $1`, tag)
}

func (r *DepositPostgres) getBy(ctx context.Context, cond string, arg interface{}) (models.Deposit, error) {
	var d models.Deposit
	err := r.db.GetContext(ctx, &d, `SELECT `+depositColumns+` FROM deposits WHERE `+cond, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Deposit{}, errors.Wrapf(ErrNotFound, "deposit %v", arg)
		}
		return models.Deposit{}, storageErr("get deposit", err)
	}
	return d, nil
}

func (r *DepositPostgres) ListDeposits(ctx context.Context, address string, limit int) ([]models.Deposit, error) {
	deposits := []models.Deposit{}
	err := r.db.SelectContext(ctx, &deposits, `
		SELECT `+depositColumns+`
		FROM deposits
		WHERE address = $1
		ORDER BY id DESC
		LIMIT $2
	`, address, limit)
	if err != nil {
		return nil, storageErr("list deposits", err)
	}
	return deposits, nil
}

// ConfirmDeposit credits the deposit amount exactly once. The deposit row is locked and the
// ledger is checked for an existing credit before appending, so a repeated call reports
// AlreadyCredited without touching the ledger.
func (r *DepositPostgres) ConfirmDeposit(ctx context.Context, id int64, txRef string) (models.Deposit, models.CreditResult, error) {
	var (
		d      models.Deposit
		result models.CreditResult
	)
	err := withTx(ctx, r.db, "confirm deposit", func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &d, `SELECT `+depositColumns+` FROM deposits WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errors.Wrapf(ErrNotFound, "deposit %d", id)
			}
			return errors.Wrap(err, "lock deposit")
		}

		credited, err := hasEntry(ctx, tx, d.Address, models.ReasonDeposit, d.ID)
		if err != nil {
			return err
		}
		if !credited {
			if err := appendEntry(ctx, tx, d.Address, d.Amount, models.ReasonDeposit, &d.ID); err != nil {
				return err
			}
			result = models.Credited
		} else {
			result = models.AlreadyCredited
		}

		if d.Status == models.DepositConfirmed {
			return nil
		}
		return tx.GetContext(ctx, &d, `
			UPDATE deposits
			SET status = $2, external_tx_reference = $3, confirmed_at = now()
			WHERE id = $1
			RETURNING `+depositColumns,
			id, models.DepositConfirmed, txRef)
	})
	if err != nil {
		return models.Deposit{}, "", err
	}
	return d, result, nil
}
