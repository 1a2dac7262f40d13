package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Giorgio223/ton-pvp-app/models"
	"github.com/Giorgio223/ton-pvp-app/pkg/repository"
)

type Ledger interface {
	Login(ctx context.Context, sessionAddress string) (models.Account, error)
	GetAccount(ctx context.Context, sessionAddress string) (models.Account, error)
	Balance(ctx context.Context, sessionAddress string) (decimal.Decimal, error)
	Entries(ctx context.Context, sessionAddress string, limit int) ([]models.LedgerEntry, error)
	ChargeStake(ctx context.Context, in models.GameMovementInput) (bool, error)
	CreditReward(ctx context.Context, in models.GameMovementInput) (bool, error)
}

type Withdrawal interface {
	CreateWithdrawal(ctx context.Context, sessionAddress, destination, amount string) (models.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, id int64) (models.Withdrawal, error)
	RejectWithdrawal(ctx context.Context, id int64, note string) (models.Withdrawal, error)
	GetWithdrawal(ctx context.Context, id int64) (models.Withdrawal, error)
	ListWithdrawals(ctx context.Context, filter models.WithdrawalFilter) ([]models.Withdrawal, error)
	StaleWithdrawals(ctx context.Context) ([]models.Withdrawal, error)
	ReportStale(ctx context.Context) error
}

type Deposit interface {
	PayToAddress() string
	CreateDeposit(ctx context.Context, sessionAddress, amount string) (models.Deposit, error)
	ListDeposits(ctx context.Context, sessionAddress string, limit int) ([]models.Deposit, error)
	ConfirmDeposit(ctx context.Context, id int64, txRef string) (models.Deposit, models.CreditResult, error)
	MatchTransfer(ctx context.Context, t models.IncomingTransfer) (models.CreditResult, error)
}

type Service struct {
	Ledger
	Withdrawal
	Deposit
}

type Deps struct {
	Gateway      PayoutGateway
	Notifier     Notifier
	Metrics      *Metrics
	Logger       *logrus.Logger
	Withdrawal   WithdrawalConfig
	PayToAddress string
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	return &Service{
		Ledger:     NewLedgerService(repos.Account, repos.Ledger, deps.Logger),
		Withdrawal: NewWithdrawalService(repos.Withdrawal, deps.Gateway, deps.Notifier, deps.Withdrawal, deps.Metrics, deps.Logger),
		Deposit:    NewDepositService(repos.Deposit, deps.PayToAddress, deps.Metrics, deps.Logger),
	}
}
