package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Giorgio223/ton-pvp-app/models"
)

// TransferSource lists incoming transfers to the custodial wallet with logical time above after.
// scanned is the highest logical time the source looked at, including transactions it filtered
// out, so a page holding no transfers still moves the cursor.
type TransferSource interface {
	IncomingTransfers(ctx context.Context, after uint64, limit int) (transfers []models.IncomingTransfer, scanned uint64, err error)
}

// CursorStore persists the logical time of the last processed transfer.
type CursorStore interface {
	Load(ctx context.Context) (uint64, error)
	Save(ctx context.Context, lt uint64) error
}

// SeenSet remembers transfer hashes already handed to MatchTransfer.
type SeenSet interface {
	Seen(key string) bool
	Mark(key string)
}

type transferMatcher interface {
	MatchTransfer(ctx context.Context, t models.IncomingTransfer) (models.CreditResult, error)
}

// DepositWatcher feeds incoming transfers into deposit matching. Matching is idempotent, so a
// transfer processed again after a restart credits nothing twice.
type DepositWatcher struct {
	source   TransferSource
	matcher  transferMatcher
	cursor   CursorStore
	seen     SeenSet
	interval time.Duration
	batch    int
	metrics  *Metrics
	log      *logrus.Entry
}

func NewDepositWatcher(source TransferSource, matcher transferMatcher, cursor CursorStore, seen SeenSet, interval time.Duration, metrics *Metrics, logger *logrus.Logger) *DepositWatcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &DepositWatcher{
		source:   source,
		matcher:  matcher,
		cursor:   cursor,
		seen:     seen,
		interval: interval,
		batch:    100,
		metrics:  metrics,
		log:      logger.WithField("component", "deposit_watcher"),
	}
}

func (w *DepositWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.WithField("interval", w.interval.String()).Info("deposit watcher started")
	for {
		if _, err := w.Poll(ctx); err != nil && ctx.Err() == nil {
			w.log.WithError(err).Warn("deposit poll failed")
		}
		select {
		case <-ctx.Done():
			w.log.Info("deposit watcher stopped")
			return
		case <-ticker.C:
		}
	}
}

// Poll processes one batch and returns how many transfers were credited. The cursor only moves
// past transfers whose matching finished without error. When the whole batch matched, it moves to
// the highest logical time the source scanned.
func (w *DepositWatcher) Poll(ctx context.Context) (int, error) {
	after, err := w.cursor.Load(ctx)
	if err != nil {
		return 0, err
	}
	transfers, scanned, err := w.source.IncomingTransfers(ctx, after, w.batch)
	if err != nil {
		return 0, err
	}
	sort.Slice(transfers, func(i, j int) bool {
		return transfers[i].LogicalTime < transfers[j].LogicalTime
	})

	credited := 0
	last := after
	var pollErr error
	for _, t := range transfers {
		key := t.Hash + ":" + strconv.FormatUint(t.LogicalTime, 10)
		if w.seen.Seen(key) {
			last = maxLT(last, t.LogicalTime)
			continue
		}
		result, err := w.matcher.MatchTransfer(ctx, t)
		if err != nil {
			pollErr = err
			break
		}
		w.seen.Mark(key)
		last = maxLT(last, t.LogicalTime)

		entry := w.log.WithFields(logrus.Fields{"tx_hash": t.Hash, "lt": t.LogicalTime, "result": result})
		switch result {
		case models.Credited:
			credited++
			entry.Info("incoming transfer credited")
		case models.NoMatch:
			entry.WithField("memo", t.Memo).Debug("incoming transfer without matching deposit")
		default:
			entry.Debug("incoming transfer already credited")
		}
	}

	if pollErr == nil {
		last = maxLT(last, scanned)
	}
	if last != after {
		if err := w.cursor.Save(ctx, last); err != nil {
			return credited, err
		}
		w.metrics.cursor(last)
	}
	return credited, pollErr
}

func maxLT(a, b uint64) uint64 {
	if b > a {
		return b
	}
	return a
}
