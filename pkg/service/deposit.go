package service

import (
	"context"
	"crypto/rand"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Giorgio223/ton-pvp-app/internal/address"
	"github.com/Giorgio223/ton-pvp-app/models"
	"github.com/Giorgio223/ton-pvp-app/pkg/amount"
	"github.com/Giorgio223/ton-pvp-app/pkg/repository"
)

const (
	tagBytes    = 12
	tagAttempts = 3
)

type DepositService struct {
	repos   repository.Deposit
	payTo   string
	metrics *Metrics
	log     *logrus.Entry
}

func NewDepositService(repos repository.Deposit, payTo string, metrics *Metrics, logger *logrus.Logger) *DepositService {
	return &DepositService{
		repos:   repos,
		payTo:   payTo,
		metrics: metrics,
		log:     logger.WithField("component", "deposits"),
	}
}

// PayToAddress is the custodial wallet users send deposits to.
func (s *DepositService) PayToAddress() string {
	return s.payTo
}

// CreateDeposit registers an expected transfer. The user must put the returned correlation tag
// in the transfer comment and send exactly the requested amount.
func (s *DepositService) CreateDeposit(ctx context.Context, sessionAddress, amountStr string) (models.Deposit, error) {
	owner, err := address.Canonical(sessionAddress)
	if err != nil {
		return models.Deposit{}, invalid("address", err.Error())
	}
	units, err := amount.Parse(amountStr)
	if err != nil {
		return models.Deposit{}, invalid("amount", err.Error())
	}
	if !units.IsPositive() {
		return models.Deposit{}, invalid("amount", "must be positive")
	}

	for attempt := 0; attempt < tagAttempts; attempt++ {
		tag, err := newCorrelationTag()
		if err != nil {
			return models.Deposit{}, err
		}
		d, err := s.repos.CreateDeposit(ctx, models.DepositInput{
			Address:        owner,
			Amount:         units,
			CorrelationTag: tag,
		})
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return models.Deposit{}, err
		}
		s.log.WithFields(logrus.Fields{
			"deposit_id": d.ID,
			"address":    d.Address,
			"amount":     d.Amount.String(),
		}).Info("deposit created")
		return d, nil
	}
	return models.Deposit{}, errors.New("could not allocate a unique correlation tag")
}

func (s *DepositService) ListDeposits(ctx context.Context, sessionAddress string, limit int) ([]models.Deposit, error) {
	owner, err := address.Canonical(sessionAddress)
	if err != nil {
		return nil, invalid("address", err.Error())
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repos.ListDeposits(ctx, owner, limit)
}

// ConfirmDeposit is the idempotent credit primitive: the first call credits the ledger, later
// calls for the same deposit return AlreadyCredited and change nothing.
func (s *DepositService) ConfirmDeposit(ctx context.Context, id int64, txRef string) (models.Deposit, models.CreditResult, error) {
	txRef = strings.TrimSpace(txRef)
	if txRef == "" {
		return models.Deposit{}, "", invalid("tx_ref", "empty")
	}
	d, result, err := s.repos.ConfirmDeposit(ctx, id, txRef)
	if err != nil {
		s.log.WithError(err).WithField("deposit_id", id).Warn("deposit not confirmed")
		return models.Deposit{}, "", err
	}
	s.metrics.credit(string(result))
	s.log.WithFields(logrus.Fields{
		"deposit_id": d.ID,
		"address":    d.Address,
		"amount":     d.Amount.String(),
		"tx_ref":     txRef,
		"result":     result,
	}).Info("deposit confirmation")
	return d, result, nil
}

// MatchTransfer resolves an incoming transfer to its pending deposit by the correlation tag in
// the memo and credits it when the amount matches exactly.
func (s *DepositService) MatchTransfer(ctx context.Context, t models.IncomingTransfer) (models.CreditResult, error) {
	tag := strings.TrimSpace(t.Memo)
	if tag == "" {
		s.metrics.credit(string(models.NoMatch))
		return models.NoMatch, nil
	}
	d, err := s.repos.GetDepositByTag(ctx, tag)
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.credit(string(models.NoMatch))
		return models.NoMatch, nil
	}
	if err != nil {
		return "", err
	}

	entry := s.log.WithFields(logrus.Fields{
		"deposit_id": d.ID,
		"tx_hash":    t.Hash,
		"expected":   d.Amount.String(),
		"received":   t.Amount.String(),
	})
	if !d.Amount.Equal(t.Amount) {
		entry.Warn("transfer amount does not match deposit, left for manual review")
		s.metrics.credit(string(models.NoMatch))
		return models.NoMatch, nil
	}

	_, result, err := s.ConfirmDeposit(ctx, d.ID, t.Hash)
	if err != nil {
		return "", err
	}
	return result, nil
}

func newCorrelationTag() (string, error) {
	buf := make([]byte, tagBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random tag")
	}
	return base58.Encode(buf), nil
}
