package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"carpool/internal/observability"
	"carpool/internal/redis"
	"carpool/internal/repository"
)

const sweepLockName = "sweep:matches"

// MatchSweeper expires proposed matches nobody resolved within the TTL.
type MatchSweeper struct {
	matches  repository.MatchRepository
	locks    redis.LockStoreInterface
	nrApp    *newrelic.Application
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewMatchSweeper creates a new MatchSweeper. locks and nrApp may be nil;
// without locks every replica sweeps, which is safe because expiry is a
// conditional update.
func NewMatchSweeper(
	matches repository.MatchRepository,
	locks redis.LockStoreInterface,
	nrApp *newrelic.Application,
	ttl, interval time.Duration,
	logger *slog.Logger,
) *MatchSweeper {
	return &MatchSweeper{
		matches:  matches,
		locks:    locks,
		nrApp:    nrApp,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps on every tick until ctx is cancelled. A zero TTL disables it.
func (s *MatchSweeper) Run(ctx context.Context) error {
	if s.ttl <= 0 {
		s.logger.Info("match sweeper disabled")
		return nil
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("match sweep failed", "error", err)
			}
		}
	}
}

// Sweep expires proposals older than the TTL once and returns how many
// were changed.
func (s *MatchSweeper) Sweep(ctx context.Context) (int64, error) {
	txn := s.nrApp.StartTransaction("match-sweep")
	defer txn.End()
	ctx = newrelic.NewContext(ctx, txn)

	if s.locks != nil {
		ok, err := s.locks.Acquire(ctx, sweepLockName, s.interval)
		if err != nil {
			txn.NoticeError(err)
			return 0, err
		}
		if !ok {
			return 0, nil
		}
		// The lock is left to expire so other replicas skip this tick.
	}

	cutoff := s.now().UTC().Add(-s.ttl)
	n, err := s.matches.ExpireProposed(ctx, cutoff)
	if err != nil {
		txn.NoticeError(err)
		return 0, err
	}

	if n > 0 {
		observability.MatchesExpired.Add(float64(n))
		s.logger.InfoContext(ctx, "expired stale proposals", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
