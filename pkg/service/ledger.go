package service

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Giorgio223/ton-pvp-app/internal/address"
	"github.com/Giorgio223/ton-pvp-app/models"
	"github.com/Giorgio223/ton-pvp-app/pkg/amount"
	"github.com/Giorgio223/ton-pvp-app/pkg/repository"
)

type LedgerService struct {
	accounts repository.Account
	ledger   repository.Ledger
	log      *logrus.Entry
}

func NewLedgerService(accounts repository.Account, ledger repository.Ledger, logger *logrus.Logger) *LedgerService {
	return &LedgerService{
		accounts: accounts,
		ledger:   ledger,
		log:      logger.WithField("component", "ledger"),
	}
}

// Login creates the account on first sight of the address.
func (s *LedgerService) Login(ctx context.Context, sessionAddress string) (models.Account, error) {
	owner, err := address.Canonical(sessionAddress)
	if err != nil {
		return models.Account{}, invalid("address", err.Error())
	}
	return s.accounts.EnsureAccount(ctx, owner)
}

func (s *LedgerService) GetAccount(ctx context.Context, sessionAddress string) (models.Account, error) {
	owner, err := address.Canonical(sessionAddress)
	if err != nil {
		return models.Account{}, invalid("address", err.Error())
	}
	return s.accounts.GetAccount(ctx, owner)
}

func (s *LedgerService) Balance(ctx context.Context, sessionAddress string) (decimal.Decimal, error) {
	owner, err := address.Canonical(sessionAddress)
	if err != nil {
		return decimal.Zero, invalid("address", err.Error())
	}
	return s.ledger.Balance(ctx, owner)
}

func (s *LedgerService) Entries(ctx context.Context, sessionAddress string, limit int) ([]models.LedgerEntry, error) {
	owner, err := address.Canonical(sessionAddress)
	if err != nil {
		return nil, invalid("address", err.Error())
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.ledger.Entries(ctx, owner, limit)
}

// ChargeStake takes a game stake through the balance guard. Repeating a reference is a no-op
// and returns false.
func (s *LedgerService) ChargeStake(ctx context.Context, in models.GameMovementInput) (bool, error) {
	owner, units, err := s.movement(in)
	if err != nil {
		return false, err
	}
	applied, err := s.ledger.Charge(ctx, owner, units, models.ReasonGameStake, in.Reference)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"address": owner, "reference": in.Reference}).Warn("stake refused")
		return false, err
	}
	s.log.WithFields(logrus.Fields{
		"address":   owner,
		"amount":    units.String(),
		"reference": in.Reference,
		"applied":   applied,
	}).Info("stake charged")
	return applied, nil
}

// CreditReward pays a game reward once per reference.
func (s *LedgerService) CreditReward(ctx context.Context, in models.GameMovementInput) (bool, error) {
	owner, units, err := s.movement(in)
	if err != nil {
		return false, err
	}
	applied, err := s.ledger.Credit(ctx, owner, units, models.ReasonGameReward, in.Reference)
	if err != nil {
		return false, err
	}
	s.log.WithFields(logrus.Fields{
		"address":   owner,
		"amount":    units.String(),
		"reference": in.Reference,
		"applied":   applied,
	}).Info("reward credited")
	return applied, nil
}

func (s *LedgerService) movement(in models.GameMovementInput) (string, decimal.Decimal, error) {
	owner, err := address.Canonical(in.Address)
	if err != nil {
		return "", decimal.Zero, invalid("address", err.Error())
	}
	units, err := amount.Parse(in.Amount)
	if err != nil {
		return "", decimal.Zero, invalid("amount", err.Error())
	}
	if !units.IsPositive() {
		return "", decimal.Zero, invalid("amount", "must be positive")
	}
	if in.Reference <= 0 {
		return "", decimal.Zero, invalid("reference", "must be positive")
	}
	return owner, units, nil
}
