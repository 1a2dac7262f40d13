package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/Giorgio223/ton-pvp-app/models"
)

type Account interface {
	EnsureAccount(ctx context.Context, address string) (models.Account, error)
	GetAccount(ctx context.Context, address string) (models.Account, error)
}

type Ledger interface {
	Append(ctx context.Context, address string, delta decimal.Decimal, reason models.Reason, reference *int64) error
	Balance(ctx context.Context, address string) (decimal.Decimal, error)
	Entries(ctx context.Context, address string, limit int) ([]models.LedgerEntry, error)
	Charge(ctx context.Context, address string, amount decimal.Decimal, reason models.Reason, reference int64) (bool, error)
	Credit(ctx context.Context, address string, amount decimal.Decimal, reason models.Reason, reference int64) (bool, error)
}

type Withdrawal interface {
	CreateWithdrawal(ctx context.Context, in models.WithdrawalInput) (models.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id int64) (models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, filter models.WithdrawalFilter) ([]models.Withdrawal, error)
	StartProcessing(ctx context.Context, id int64) (models.Withdrawal, error)
	CompletePayout(ctx context.Context, id int64, note string) (models.Withdrawal, error)
	FailPayout(ctx context.Context, id int64, note string) (models.Withdrawal, error)
	RejectWithdrawal(ctx context.Context, id int64, note string) (models.Withdrawal, error)
}

type Deposit interface {
	CreateDeposit(ctx context.Context, in models.DepositInput) (models.Deposit, error)
	GetDeposit(ctx context.Context, id int64) (models.Deposit, error)
	GetDepositByTag(ctx context.Context, tag string) (models.Deposit, error)
	ListDeposits(ctx context.Context, address string, limit int) ([]models.Deposit, error)
	ConfirmDeposit(ctx context.Context, id int64, txRef string) (models.Deposit, models.CreditResult, error)
}

type Repository struct {
	Account
	Ledger
	Withdrawal
	Deposit
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		Account:    NewAccountPostgres(db),
		Ledger:     NewLedgerPostgres(db),
		Withdrawal: NewWithdrawalPostgres(db),
		Deposit:    NewDepositPostgres(db),
	}
}
