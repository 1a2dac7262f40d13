package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Giorgio223/ton-pvp-app/internal/address"
	"github.com/Giorgio223/ton-pvp-app/models"
	"github.com/Giorgio223/ton-pvp-app/pkg/amount"
	"github.com/Giorgio223/ton-pvp-app/pkg/repository"
)

// PayoutGateway sends funds on-chain. A call may be slow and may fail after the transfer was
// broadcast; it is never made while a database transaction is open.
type PayoutGateway interface {
	Payout(ctx context.Context, req PayoutRequest) (PayoutReceipt, error)
}

type PayoutRequest struct {
	Destination    string
	Amount         decimal.Decimal // nanotons
	Memo           string
	IdempotencyKey string
}

type PayoutReceipt struct {
	Reference string
}

type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

const maxNoteLength = 500

type WithdrawalService struct {
	repos    repository.Withdrawal
	gateway  PayoutGateway
	notifier Notifier
	cfg      WithdrawalConfig
	metrics  *Metrics
	log      *logrus.Entry
}

func NewWithdrawalService(repos repository.Withdrawal, gateway PayoutGateway, notifier Notifier, cfg WithdrawalConfig, metrics *Metrics, logger *logrus.Logger) *WithdrawalService {
	return &WithdrawalService{
		repos:    repos,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		metrics:  metrics,
		log:      logger.WithField("component", "withdrawals"),
	}
}

// CreateWithdrawal holds the funds and records the request. Amounts up to the auto-payout
// ceiling are paid immediately; larger ones wait in pending for an admin.
func (s *WithdrawalService) CreateWithdrawal(ctx context.Context, sessionAddress, destination, amountStr string) (models.Withdrawal, error) {
	owner, err := address.Canonical(sessionAddress)
	if err != nil {
		return models.Withdrawal{}, invalid("address", err.Error())
	}
	dest, err := address.Destination(destination)
	if err != nil {
		return models.Withdrawal{}, invalid("destination", err.Error())
	}
	units, err := amount.Parse(amountStr)
	if err != nil {
		return models.Withdrawal{}, invalid("amount", err.Error())
	}
	if !units.IsPositive() || units.LessThan(s.cfg.MinAmount) {
		return models.Withdrawal{}, invalid("amount", "below minimum withdrawal "+amount.Format(s.cfg.MinAmount))
	}

	status := models.WithdrawalPending
	if s.cfg.autoPay(units) {
		status = models.WithdrawalProcessing
	}

	w, err := s.repos.CreateWithdrawal(ctx, models.WithdrawalInput{
		Address:     owner,
		Destination: dest,
		Amount:      units,
		Status:      status,
	})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"address": owner,
			"amount":  units.String(),
		}).Warn("withdrawal not created")
		return models.Withdrawal{}, err
	}

	s.metrics.transition(string(w.Status))
	s.entry(w).Info("withdrawal created, funds held")

	if w.Status == models.WithdrawalProcessing {
		return s.payout(ctx, w)
	}
	s.notify(ctx, fmt.Sprintf("Withdrawal #%d awaits review", w.ID),
		fmt.Sprintf("Account: %s\nDestination: %s\nAmount: %s TON\n", w.Address, w.DestinationAddress, amount.Format(w.Amount)))
	return w, nil
}

// ApproveWithdrawal moves a pending withdrawal to processing in its own transaction and only
// then calls the gateway. A concurrent or repeated approve sees processing or a terminal
// status and fails with ErrBadStatus without calling the gateway.
func (s *WithdrawalService) ApproveWithdrawal(ctx context.Context, id int64) (models.Withdrawal, error) {
	w, err := s.repos.StartProcessing(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("withdrawal_id", id).Warn("approve refused")
		return models.Withdrawal{}, err
	}
	s.metrics.transition(string(w.Status))
	s.entry(w).Info("withdrawal approved")
	return s.payout(ctx, w)
}

func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, id int64, note string) (models.Withdrawal, error) {
	w, err := s.repos.RejectWithdrawal(ctx, id, clip(note))
	if err != nil {
		s.log.WithError(err).WithField("withdrawal_id", id).Warn("reject refused")
		return models.Withdrawal{}, err
	}
	s.metrics.transition(string(w.Status))
	s.entry(w).Info("withdrawal rejected, funds released")
	return w, nil
}

func (s *WithdrawalService) GetWithdrawal(ctx context.Context, id int64) (models.Withdrawal, error) {
	return s.repos.GetWithdrawal(ctx, id)
}

func (s *WithdrawalService) ListWithdrawals(ctx context.Context, filter models.WithdrawalFilter) ([]models.Withdrawal, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", string(filter.Status))
	}
	if filter.Address != "" {
		owner, err := address.Canonical(filter.Address)
		if err != nil {
			return nil, invalid("address", err.Error())
		}
		filter.Address = owner
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, invalid("page", "negative limit or offset")
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	return s.repos.ListWithdrawals(ctx, filter)
}

// StaleWithdrawals lists withdrawals left in processing longer than StaleAfter, which only
// happens when the process died between the gateway call and the final transition.
func (s *WithdrawalService) StaleWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	return s.repos.ListWithdrawals(ctx, models.WithdrawalFilter{
		Status:        models.WithdrawalProcessing,
		UpdatedBefore: time.Now().Add(-s.cfg.StaleAfter),
		Limit:         500,
	})
}

// ReportStale logs and mails stale processing withdrawals. They are resolved by hand after
// checking the chain.
func (s *WithdrawalService) ReportStale(ctx context.Context) error {
	stale, err := s.StaleWithdrawals(ctx)
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}
	body := ""
	for _, w := range stale {
		s.entry(w).WithField("updated_at", w.UpdatedAt).Error("withdrawal stuck in processing, reconcile on-chain")
		body += fmt.Sprintf("#%d %s TON to %s, processing since %s\n", w.ID, amount.Format(w.Amount), w.DestinationAddress, w.UpdatedAt.Format(time.RFC3339))
	}
	s.notify(ctx, fmt.Sprintf("%d withdrawal(s) stuck in processing", len(stale)), body)
	return nil
}

// payout is the unlocked step between StartProcessing (or an auto-pay create) and the final
// transition. The request context is detached so a disconnecting client cannot leave the
// withdrawal in processing.
func (s *WithdrawalService) payout(ctx context.Context, w models.Withdrawal) (models.Withdrawal, error) {
	ctx = context.WithoutCancel(ctx)
	entry := s.entry(w)

	started := time.Now()
	receipt, err := s.callGateway(ctx, w)
	elapsed := time.Since(started)

	if err != nil {
		payErr := &PayoutError{WithdrawalID: w.ID, Err: err}
		s.metrics.payout("failed", elapsed)
		entry = entry.WithError(err).WithField("ambiguous", payErr.Ambiguous())
		if payErr.Ambiguous() {
			entry.Error("payout outcome unknown, releasing hold; reconcile against chain")
		} else {
			entry.Warn("payout rejected by gateway, releasing hold")
		}

		failed, ferr := s.repos.FailPayout(ctx, w.ID, clip("payout failed: "+err.Error()))
		if ferr != nil {
			entry.WithField("finalize_error", ferr.Error()).Error("withdrawal left in processing")
			return w, ferr
		}
		s.metrics.transition(string(failed.Status))
		if payErr.Ambiguous() {
			s.notify(ctx, fmt.Sprintf("Withdrawal #%d payout outcome unknown", w.ID),
				fmt.Sprintf("Hold released and withdrawal marked failed.\nDestination: %s\nAmount: %s TON\nError: %v\nCheck the chain before any manual action.\n",
					w.DestinationAddress, amount.Format(w.Amount), err))
		}
		return failed, payErr
	}

	s.metrics.payout("paid", elapsed)
	paid, err := s.repos.CompletePayout(ctx, w.ID, clip(receipt.Reference))
	if err != nil {
		entry.WithError(err).WithField("payout_reference", receipt.Reference).Error("payout sent but not recorded, withdrawal left in processing")
		return w, err
	}
	s.metrics.transition(string(paid.Status))
	s.entry(paid).WithField("payout_reference", receipt.Reference).Info("withdrawal paid")
	return paid, nil
}

// callGateway makes exactly one gateway call. A panic in the gateway counts as a failure.
func (s *WithdrawalService) callGateway(ctx context.Context, w models.Withdrawal) (receipt PayoutReceipt, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PayoutTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("payout gateway panic: %v", r)
		}
	}()

	memo := fmt.Sprintf("withdrawal:%d", w.ID)
	return s.gateway.Payout(ctx, PayoutRequest{
		Destination:    w.DestinationAddress,
		Amount:         w.Amount,
		Memo:           memo,
		IdempotencyKey: uuid.NewSHA1(uuid.NameSpaceOID, []byte(memo)).String(),
	})
}

func (s *WithdrawalService) notify(ctx context.Context, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, subject, body); err != nil {
		s.log.WithError(err).WithField("subject", subject).Warn("admin notification failed")
	}
}

func (s *WithdrawalService) entry(w models.Withdrawal) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"withdrawal_id": w.ID,
		"address":       w.Address,
		"amount":        w.Amount.String(),
		"status":        w.Status,
	})
}

func clip(s string) string {
	if len(s) > maxNoteLength {
		return s[:maxNoteLength]
	}
	return s
}
