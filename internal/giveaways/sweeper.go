package giveaways

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sweepgoat/backend/internal/models"
	"github.com/sweepgoat/backend/pkg/metrics"
)

// DefaultSweepInterval is how often expired giveaways are ended.
const DefaultSweepInterval = 5 * time.Minute

// SweepStore finds and ends expired giveaways.
type SweepStore interface {
	ListExpiredActive(ctx context.Context, now time.Time) ([]models.Giveaway, error)
	EndIfActive(ctx context.Context, id int64) (bool, error)
}

// Sweeper moves ACTIVE giveaways past their end date to ENDED on a ticker.
type Sweeper struct {
	store    SweepStore
	metrics  *metrics.Metrics
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time
	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweeper creates a sweeper. A non-positive interval uses DefaultSweepInterval.
func NewSweeper(store SweepStore, interval time.Duration, m *metrics.Metrics, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{store: store, metrics: m, logger: logger, interval: interval, now: time.Now}
}

// Start runs one sweep immediately and then one per interval until Stop.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.run(ctx)
	s.logger.Info("giveaway sweeper started", zap.Duration("interval", s.interval))
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil
	<-s.done
	s.logger.Info("giveaway sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep ends every expired ACTIVE giveaway and returns how many it flipped.
func (s *Sweeper) Sweep(ctx context.Context) int {
	now := s.now()
	expired, err := s.store.ListExpiredActive(ctx, now)
	if err != nil {
		s.logger.Warn("giveaway sweep load failed", zap.Error(err))
		return 0
	}
	ended := 0
	for _, g := range expired {
		ok, err := s.store.EndIfActive(ctx, g.ID)
		if err != nil {
			s.logger.Warn("giveaway sweep update failed", zap.Int64("giveaway_id", g.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		ended++
		s.metrics.GiveawayEnded()
		s.logger.Info("giveaway ended",
			zap.Int64("giveaway_id", g.ID), zap.Int64("host_id", g.HostID),
			zap.String("title", g.Title), zap.Time("end_date", g.EndDate))
	}
	if ended > 0 {
		s.logger.Info("giveaway sweep complete", zap.Int("ended", ended))
	}
	return ended
}
