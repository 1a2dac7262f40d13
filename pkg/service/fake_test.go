package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Giorgio223/ton-pvp-app/models"
	"github.com/Giorgio223/ton-pvp-app/pkg/repository"
)

const (
	userAddr  = "0:83dfd552e63729b472fcbcc8c45ebcc6691702558b68ec7527e1ba403a0f31a8"
	otherAddr = "0:1111111111111111111111111111111111111111111111111111111111111111"
	destAddr  = "0:abababababababababababababababababababababababababababababababab"
)

// fakeStore keeps everything behind one mutex, which gives each method the atomicity of the
// Postgres transaction it stands in for.
type fakeStore struct {
	mu          sync.Mutex
	now         time.Time
	accounts    map[string]models.Account
	entries     []models.LedgerEntry
	withdrawals map[int64]models.Withdrawal
	deposits    map[int64]models.Deposit
	nextID      int64
	dupTags     int
	failFinal   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		now:         time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		accounts:    map[string]models.Account{},
		withdrawals: map[int64]models.Withdrawal{},
		deposits:    map[int64]models.Deposit{},
	}
}

func (f *fakeStore) repository() *repository.Repository {
	return &repository.Repository{Account: f, Ledger: f, Withdrawal: f, Deposit: f}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) appendLocked(address string, delta decimal.Decimal, reason models.Reason, reference *int64) {
	if _, ok := f.accounts[address]; !ok {
		f.accounts[address] = models.Account{Address: address, CreatedAt: f.now}
	}
	f.entries = append(f.entries, models.LedgerEntry{
		ID:        f.id(),
		Address:   address,
		Delta:     delta,
		Reason:    reason,
		Reference: reference,
		CreatedAt: f.now,
	})
}

func (f *fakeStore) balanceLocked(address string) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range f.entries {
		if e.Address == address {
			sum = sum.Add(e.Delta)
		}
	}
	return sum
}

func (f *fakeStore) countLocked(reason models.Reason, reference int64) int {
	n := 0
	for _, e := range f.entries {
		if e.Reason == reason && e.Reference != nil && *e.Reference == reference {
			n++
		}
	}
	return n
}

func (f *fakeStore) seed(address string, units decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendLocked(address, units, models.ReasonDeposit, nil)
}

func (f *fakeStore) balance(address string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balanceLocked(address)
}

func (f *fakeStore) count(reason models.Reason, reference int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(reason, reference)
}

func (f *fakeStore) withdrawalCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.withdrawals)
}

func (f *fakeStore) EnsureAccount(ctx context.Context, address string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[address]; !ok {
		f.accounts[address] = models.Account{Address: address, CreatedAt: f.now}
	}
	return f.accounts[address], nil
}

func (f *fakeStore) GetAccount(ctx context.Context, address string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[address]
	if !ok {
		return models.Account{}, repository.ErrNotFound
	}
	return a, nil
}

func (f *fakeStore) Append(ctx context.Context, address string, delta decimal.Decimal, reason models.Reason, reference *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendLocked(address, delta, reason, reference)
	return nil
}

func (f *fakeStore) Balance(ctx context.Context, address string) (decimal.Decimal, error) {
	return f.balance(address), nil
}

func (f *fakeStore) Entries(ctx context.Context, address string, limit int) ([]models.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LedgerEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].Address == address {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeStore) hasLocked(address string, reason models.Reason, reference int64) bool {
	for _, e := range f.entries {
		if e.Address == address && e.Reason == reason && e.Reference != nil && *e.Reference == reference {
			return true
		}
	}
	return false
}

func (f *fakeStore) Charge(ctx context.Context, address string, amount decimal.Decimal, reason models.Reason, reference int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasLocked(address, reason, reference) {
		return false, nil
	}
	if f.balanceLocked(address).LessThan(amount) {
		return false, repository.ErrInsufficientFunds
	}
	ref := reference
	f.appendLocked(address, amount.Neg(), reason, &ref)
	return true, nil
}

func (f *fakeStore) Credit(ctx context.Context, address string, amount decimal.Decimal, reason models.Reason, reference int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasLocked(address, reason, reference) {
		return false, nil
	}
	ref := reference
	f.appendLocked(address, amount, reason, &ref)
	return true, nil
}

func (f *fakeStore) CreateWithdrawal(ctx context.Context, in models.WithdrawalInput) (models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[in.Address]; !ok {
		return models.Withdrawal{}, repository.ErrInsufficientFunds
	}
	if f.balanceLocked(in.Address).LessThan(in.Amount) {
		return models.Withdrawal{}, repository.ErrInsufficientFunds
	}
	w := models.Withdrawal{
		ID:                 f.id(),
		Address:            in.Address,
		DestinationAddress: in.Destination,
		Amount:             in.Amount,
		Status:             in.Status,
		CreatedAt:          f.now,
		UpdatedAt:          f.now,
	}
	f.withdrawals[w.ID] = w
	ref := w.ID
	f.appendLocked(in.Address, in.Amount.Neg(), models.ReasonWithdrawHold, &ref)
	return w, nil
}

func (f *fakeStore) GetWithdrawal(ctx context.Context, id int64) (models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.withdrawals[id]
	if !ok {
		return models.Withdrawal{}, repository.ErrNotFound
	}
	return w, nil
}

func (f *fakeStore) ListWithdrawals(ctx context.Context, filter models.WithdrawalFilter) ([]models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Withdrawal{}
	for _, w := range f.withdrawals {
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		if filter.Address != "" && w.Address != filter.Address {
			continue
		}
		if !filter.UpdatedBefore.IsZero() && !w.UpdatedAt.Before(filter.UpdatedBefore) {
			continue
		}
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) transition(id int64, from, to models.WithdrawalStatus, note string, release bool) (models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.withdrawals[id]
	if !ok {
		return models.Withdrawal{}, repository.ErrNotFound
	}
	if w.Status != from {
		return models.Withdrawal{}, errors.Wrapf(repository.ErrBadStatus, "withdrawal %d is %s", id, w.Status)
	}
	if release && !f.hasLocked(w.Address, models.ReasonWithdrawRelease, w.ID) {
		ref := w.ID
		f.appendLocked(w.Address, w.Amount, models.ReasonWithdrawRelease, &ref)
	}
	w.Status = to
	w.Note = note
	w.UpdatedAt = f.now
	if to.Terminal() {
		decided := f.now
		w.DecidedAt = &decided
	}
	f.withdrawals[id] = w
	return w, nil
}

func (f *fakeStore) StartProcessing(ctx context.Context, id int64) (models.Withdrawal, error) {
	w, err := f.GetWithdrawal(ctx, id)
	if err != nil {
		return w, err
	}
	return f.transition(id, models.WithdrawalPending, models.WithdrawalProcessing, w.Note, false)
}

func (f *fakeStore) CompletePayout(ctx context.Context, id int64, note string) (models.Withdrawal, error) {
	if f.failFinal != nil {
		return models.Withdrawal{}, f.failFinal
	}
	return f.transition(id, models.WithdrawalProcessing, models.WithdrawalPaid, note, false)
}

func (f *fakeStore) FailPayout(ctx context.Context, id int64, note string) (models.Withdrawal, error) {
	if f.failFinal != nil {
		return models.Withdrawal{}, f.failFinal
	}
	return f.transition(id, models.WithdrawalProcessing, models.WithdrawalFailed, note, true)
}

func (f *fakeStore) RejectWithdrawal(ctx context.Context, id int64, note string) (models.Withdrawal, error) {
	return f.transition(id, models.WithdrawalPending, models.WithdrawalRejected, note, true)
}

func (f *fakeStore) CreateDeposit(ctx context.Context, in models.DepositInput) (models.Deposit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dupTags > 0 {
		f.dupTags--
		return models.Deposit{}, repository.ErrDuplicate
	}
	for _, d := range f.deposits {
		if d.CorrelationTag == in.CorrelationTag {
			return models.Deposit{}, repository.ErrDuplicate
		}
	}
	if _, ok := f.accounts[in.Address]; !ok {
		f.accounts[in.Address] = models.Account{Address: in.Address, CreatedAt: f.now}
	}
	d := models.Deposit{
		ID:             f.id(),
		Address:        in.Address,
		Amount:         in.Amount,
		CorrelationTag: in.CorrelationTag,
		Status:         models.DepositPending,
		CreatedAt:      f.now,
	}
	f.deposits[d.ID] = d
	return d, nil
}

func (f *fakeStore) GetDeposit(ctx context.Context, id int64) (models.Deposit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.deposits[id]
	if !ok {
		return models.Deposit{}, repository.ErrNotFound
	}
	return d, nil
}

func (f *fakeStore) GetDepositByTag(ctx context.Context, tag string) (models.Deposit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.deposits {
		if d.CorrelationTag == tag {
			return d, nil
		}
	}
	return models.Deposit{}, repository.ErrNotFound
}

func (f *fakeStore) ListDeposits(ctx context.Context, address string, limit int) ([]models.Deposit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Deposit{}
	for _, d := range f.deposits {
		if d.Address == address {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStore) ConfirmDeposit(ctx context.Context, id int64, txRef string) (models.Deposit, models.CreditResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.deposits[id]
	if !ok {
		return models.Deposit{}, "", repository.ErrNotFound
	}
	result := models.AlreadyCredited
	if !f.hasLocked(d.Address, models.ReasonDeposit, d.ID) {
		ref := d.ID
		f.appendLocked(d.Address, d.Amount, models.ReasonDeposit, &ref)
		result = models.Credited
	}
	if d.Status != models.DepositConfirmed {
		d.Status = models.DepositConfirmed
		d.ExternalTxRef = &txRef
		confirmed := f.now
		d.ConfirmedAt = &confirmed
		f.deposits[id] = d
	}
	return d, result, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	calls    []PayoutRequest
	ctxErrs  []error
	err      error
	panicMsg string
	started  chan struct{}
	release  chan struct{}
	waitCtx  bool
}

func (g *fakeGateway) Payout(ctx context.Context, req PayoutRequest) (PayoutReceipt, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	n := len(g.calls)
	g.mu.Unlock()

	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	if g.waitCtx {
		<-ctx.Done()
		return PayoutReceipt{}, ctx.Err()
	}
	if g.panicMsg != "" {
		panic(g.panicMsg)
	}
	if g.err != nil {
		return PayoutReceipt{}, g.err
	}
	return PayoutReceipt{Reference: "tx-" + string(rune('a'+n-1))}, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

type fakeNotifier struct {
	mu       sync.Mutex
	subjects []string
}

func (n *fakeNotifier) Notify(ctx context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subjects = append(n.subjects, subject)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subjects)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
