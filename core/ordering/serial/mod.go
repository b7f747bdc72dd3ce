// Package serial implements an ordering service for a single node. A mutex
// serializes the transactions and each one is committed to the store in a
// single atomic update.
//
// The transaction runs against an in-memory overlay of the store. The overlay
// holds the consumed nonce and, if the transaction is accepted, its effects.
// It is discarded when the validation fails, so nothing is partially applied.
// The events of the accepted transactions are published to the watchers only
// after the commit.
package serial

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.dedis.ch/blitz"
	"go.dedis.ch/blitz/core"
	"go.dedis.ch/blitz/core/access"
	"go.dedis.ch/blitz/core/ordering"
	"go.dedis.ch/blitz/core/store"
	"go.dedis.ch/blitz/core/store/mem"
	"go.dedis.ch/blitz/core/txn"
	"go.dedis.ch/blitz/core/validation"
	"golang.org/x/xerrors"
)

// recentEvents is the number of batches kept for the late watchers.
const recentEvents = 64

var (
	promAcceptedTxs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blitz_ordering_transactions_accepted_total",
		Help: "total number of accepted transactions",
	})

	promRejectedTxs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "blitz_ordering_transactions_rejected_total",
		Help: "total number of rejected transactions",
	})

	promIndex = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "blitz_ordering_index",
		Help: "index of the last committed batch",
	})
)

func init() {
	blitz.PromCollectors = append(blitz.PromCollectors, promAcceptedTxs,
		promRejectedTxs, promIndex)
}

// Clock returns the current time.
type Clock func() time.Time

// Option is the type of options to create a service.
type Option func(*Service)

// WithClock is an option to set the clock of the service.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		s.clock = clock
	}
}

// Service is an ordering service that executes the transactions one after the
// other in the order of submission.
//
// - implements ordering.Service
type Service struct {
	sync.Mutex

	store      store.Store
	validation validation.Service
	clock      Clock
	feed       *core.Feed[ordering.Event]
	logger     zerolog.Logger

	index uint64
	last  uint64
}

// NewService creates a new service on top of the store.
func NewService(st store.Store, val validation.Service, opts ...Option) *Service {
	s := &Service{
		store:      st,
		validation: val,
		clock:      time.Now,
		feed:       core.NewFeed[ordering.Event](recentEvents),
		logger:     blitz.Logger.With().Str("role", "ordering").Logger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Submit implements ordering.Service. It executes the transaction and commits
// the result to the store. An error is returned only when the transaction
// could not be processed, in which case nothing is written.
func (s *Service) Submit(ctx context.Context, tx txn.Transaction) (validation.TxResult, error) {
	s.Lock()
	defer s.Unlock()

	err := ctx.Err()
	if err != nil {
		return validation.TxResult{}, xerrors.Errorf("context: %v", err)
	}

	now := s.now()

	overlay := mem.NewSnapshot(s.store)

	res, err := s.validation.Validate(overlay, []txn.Transaction{tx}, now)
	if err != nil {
		return validation.TxResult{}, xerrors.Errorf("failed to validate: %v", err)
	}

	err = s.store.Update(overlay.Apply)
	if err != nil {
		return validation.TxResult{}, xerrors.Errorf("failed to commit: %v", err)
	}

	s.index++
	promIndex.Set(float64(s.index))

	txRes := res.Txs[0]

	if txRes.Accepted {
		promAcceptedTxs.Inc()
	} else {
		promRejectedTxs.Inc()
	}

	s.logger.Debug().
		Uint64("index", s.index).
		Hex("tx", tx.GetID()).
		Bool("accepted", txRes.Accepted).
		Str("reason", txRes.Reason).
		Msg("transaction committed")

	missed := s.feed.Publish(ordering.Event{
		Index:        s.index,
		Timestamp:    now,
		Transactions: res.Txs,
		Events:       res.Events,
	})
	if missed > 0 {
		s.logger.Warn().Int("watchers", missed).Uint64("index", s.index).Msg("slow watchers missed a batch")
	}

	return txRes, nil
}

// GetNonce implements ordering.Service. It returns the next nonce of the
// identity according to the committed state.
func (s *Service) GetNonce(ident access.Identity) (uint64, error) {
	nonce, err := s.validation.GetNonce(s.store, ident)
	if err != nil {
		return 0, xerrors.Errorf("failed to read nonce: %v", err)
	}

	return nonce, nil
}

// GetStore implements ordering.Service. It returns the committed store.
func (s *Service) GetStore() store.Readable {
	return s.store
}

// Now returns the current time of the service in seconds since the Unix
// epoch.
func (s *Service) Now() uint64 {
	s.Lock()
	defer s.Unlock()

	return s.now()
}

// Watch implements ordering.Service. A watcher that falls behind misses
// batches instead of blocking the service.
func (s *Service) Watch(ctx context.Context) <-chan ordering.Event {
	return s.feed.Subscribe(ctx, recentEvents)
}

// Recent returns the last committed batches, oldest first.
func (s *Service) Recent() []ordering.Event {
	return s.feed.Recent()
}

// now returns the clock time, which never goes backward.
func (s *Service) now() uint64 {
	now := s.clock().Unix()
	if now < 0 {
		now = 0
	}

	if uint64(now) > s.last {
		s.last = uint64(now)
	}

	return s.last
}
