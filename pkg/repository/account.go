package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Giorgio223/ton-pvp-app/models"
)

type AccountPostgres struct {
	db *sqlx.DB
}

func NewAccountPostgres(db *sqlx.DB) *AccountPostgres {
	return &AccountPostgres{db: db}
}

func (r *AccountPostgres) EnsureAccount(ctx context.Context, address string) (models.Account, error) {
	if err := ensureAccount(ctx, r.db, address); err != nil {
		return models.Account{}, storageErr("ensure account", err)
	}
	return r.GetAccount(ctx, address)
}

func (r *AccountPostgres) GetAccount(ctx context.Context, address string) (models.Account, error) {
	var account models.Account
	err := r.db.GetContext(ctx, &account, `SELECT address, created_at FROM accounts WHERE address = $1`, address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, errors.Wrapf(ErrNotFound, "account %s", address)
		}
		return models.Account{}, storageErr("get account", err)
	}
	return account, nil
}
