package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Giorgio223/ton-pvp-app/models"
)

const withdrawalColumns = `id, address, destination_address, amount, status, note, created_at, updated_at, decided_at`

type WithdrawalPostgres struct {
	db *sqlx.DB
}

func NewWithdrawalPostgres(db *sqlx.DB) *WithdrawalPostgres {
	return &WithdrawalPostgres{db: db}
}

// CreateWithdrawal checks funds, inserts the row and appends its withdraw_hold entry in one
// transaction. The account lock is taken before the insert. On ErrInsufficientFunds nothing is persisted.
func (r *WithdrawalPostgres) CreateWithdrawal(ctx context.Context, in models.WithdrawalInput) (models.Withdrawal, error) {
	var w models.Withdrawal
	err := withTx(ctx, r.db, "create withdrawal", func(tx *sqlx.Tx) error {
		if err := checkFunds(ctx, tx, in.Address, in.Amount); err != nil {
			return err
		}
		err := tx.GetContext(ctx, &w, `
			INSERT INTO withdrawals (address, destination_address, amount, status)
			VALUES ($1, $2, $3, $4)
			RETURNING `+withdrawalColumns,
			in.Address, in.Destination, in.Amount, in.Status)
		if err != nil {
			return errors.Wrap(err, "insert withdrawal")
		}
		return appendEntry(ctx, tx, in.Address, in.Amount.Neg(), models.ReasonWithdrawHold, &w.ID)
	})
	if err != nil {
		return models.Withdrawal{}, err
	}
	return w, nil
}

func (r *WithdrawalPostgres) GetWithdrawal(ctx context.Context, id int64) (models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.GetContext(ctx, &w, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Withdrawal{}, errors.Wrapf(ErrNotFound, "withdrawal %d", id)
		}
		return models.Withdrawal{}, storageErr("get withdrawal", err)
	}
	return w, nil
}

func (r *WithdrawalPostgres) ListWithdrawals(ctx context.Context, filter models.WithdrawalFilter) ([]models.Withdrawal, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Address != "" {
		args = append(args, filter.Address)
		conds = append(conds, fmt.Sprintf("address = $%d", len(args)))
	}
	if !filter.UpdatedBefore.IsZero() {
		args = append(args, filter.UpdatedBefore)
		conds = append(conds, fmt.Sprintf("updated_at < $%d", len(args)))
	}

	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	withdrawals := []models.Withdrawal{}
	if err := r.db.SelectContext(ctx, &withdrawals, query, args...); err != nil {
		return nil, storageErr("list withdrawals", err)
	}
	return withdrawals, nil
}

// StartProcessing is the single serialization point before a payout: it locks the row,
// requires pending and commits processing on its own.
func (r *WithdrawalPostgres) StartProcessing(ctx context.Context, id int64) (models.Withdrawal, error) {
	return r.transition(ctx, "start processing", id, models.WithdrawalPending, func(tx *sqlx.Tx, w models.Withdrawal) (models.Withdrawal, error) {
		return setStatus(ctx, tx, id, models.WithdrawalProcessing, w.Note, false)
	})
}

// CompletePayout moves processing to paid. The hold stays in place as the spend.
func (r *WithdrawalPostgres) CompletePayout(ctx context.Context, id int64, note string) (models.Withdrawal, error) {
	return r.transition(ctx, "complete payout", id, models.WithdrawalProcessing, func(tx *sqlx.Tx, w models.Withdrawal) (models.Withdrawal, error) {
		return setStatus(ctx, tx, id, models.WithdrawalPaid, note, true)
	})
}

// FailPayout releases the hold and moves processing to failed.
func (r *WithdrawalPostgres) FailPayout(ctx context.Context, id int64, note string) (models.Withdrawal, error) {
	return r.transition(ctx, "fail payout", id, models.WithdrawalProcessing, func(tx *sqlx.Tx, w models.Withdrawal) (models.Withdrawal, error) {
		if _, err := releaseFunds(ctx, tx, w.Address, w.Amount, w.ID); err != nil {
			return models.Withdrawal{}, err
		}
		return setStatus(ctx, tx, id, models.WithdrawalFailed, note, true)
	})
}

// RejectWithdrawal releases the hold and moves pending to rejected.
func (r *WithdrawalPostgres) RejectWithdrawal(ctx context.Context, id int64, note string) (models.Withdrawal, error) {
	return r.transition(ctx, "reject withdrawal", id, models.WithdrawalPending, func(tx *sqlx.Tx, w models.Withdrawal) (models.Withdrawal, error) {
		if _, err := releaseFunds(ctx, tx, w.Address, w.Amount, w.ID); err != nil {
			return models.Withdrawal{}, err
		}
		return setStatus(ctx, tx, id, models.WithdrawalRejected, note, true)
	})
}

func (r *WithdrawalPostgres) transition(
	ctx context.Context,
	op string,
	id int64,
	from models.WithdrawalStatus,
	apply func(tx *sqlx.Tx, w models.Withdrawal) (models.Withdrawal, error),
) (models.Withdrawal, error) {
	var out models.Withdrawal
	err := withTx(ctx, r.db, op, func(tx *sqlx.Tx) error {
		w, err := lockWithdrawal(ctx, tx, id)
		if err != nil {
			return err
		}
		if w.Status != from {
			return errors.Wrapf(ErrBadStatus, "withdrawal %d is %s, want %s", id, w.Status, from)
		}
		out, err = apply(tx, w)
		return err
	})
	if err != nil {
		return models.Withdrawal{}, err
	}
	return out, nil
}

func lockWithdrawal(ctx context.Context, tx *sqlx.Tx, id int64) (models.Withdrawal, error) {
	var w models.Withdrawal
	err := tx.GetContext(ctx, &w, `SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Withdrawal{}, errors.Wrapf(ErrNotFound, "withdrawal %d", id)
		}
		return models.Withdrawal{}, errors.Wrap(err, "lock withdrawal")
	}
	return w, nil
}

func setStatus(ctx context.Context, tx *sqlx.Tx, id int64, status models.WithdrawalStatus, note string, decided bool) (models.Withdrawal, error) {
	var w models.Withdrawal
	err := tx.GetContext(ctx, &w, `
		UPDATE withdrawals
		SET status = $2,
		    note = $3,
		    updated_at = now(),
		    decided_at = CASE WHEN $4 THEN now() ELSE decided_at END
		WHERE id = $1
		RETURNING `+withdrawalColumns,
		id, status, note, decided)
	if err != nil {
		return models.Withdrawal{}, errors.Wrap(err, "update withdrawal status")
	}
	return w, nil
}
