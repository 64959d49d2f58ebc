package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"carpool/internal/domain"
	"carpool/internal/logging"
)

type fakeLocks struct {
	held    map[string]bool
	err     error
	acquire int
}

func (l *fakeLocks) Acquire(_ context.Context, name string, _ time.Duration) (bool, error) {
	l.acquire++
	if l.err != nil {
		return false, l.err
	}
	if l.held[name] {
		return false, nil
	}
	if l.held == nil {
		l.held = map[string]bool{}
	}
	l.held[name] = true
	return true, nil
}

func TestSweep_ExpiresStaleProposals(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	offer := h.offer(t, "driver-1", baseT, 15, 3)
	stale := h.request(t, "rider-1", baseT, 15, 1)
	accepted := h.request(t, "rider-2", baseT, 15, 1)
	m := h.proposal(t, stale, offer.ID)
	if _, err := h.matches.AcceptMatch(ctx, h.proposal(t, accepted, offer.ID).ID, "rider-2"); err != nil {
		t.Fatalf("accept: %v", err)
	}

	sweeper := NewMatchSweeper(h.store.Matches(), &fakeLocks{}, nil, 30*time.Minute, time.Minute, logging.Discard())
	sweeper.now = func() time.Time { return time.Now().Add(time.Hour) }

	n, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired match, got %d", n)
	}

	got, _ := h.store.Matches().GetByID(ctx, m.ID)
	if got.Status != domain.MatchStatusExpired {
		t.Errorf("expected expired, got %s", got.Status)
	}

	after, err := h.matches.AcceptMatch(ctx, m.ID, "rider-1")
	if err != nil {
		t.Fatalf("accept expired: %v", err)
	}
	if after.Match.Status != domain.MatchStatusExpired {
		t.Errorf("expected expired match returned unchanged, got %s", after.Match.Status)
	}
}

func TestSweep_KeepsFreshProposals(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	offer := h.offer(t, "driver-1", baseT, 15, 3)
	h.proposal(t, h.request(t, "rider-1", baseT, 15, 1), offer.ID)

	sweeper := NewMatchSweeper(h.store.Matches(), nil, nil, 30*time.Minute, time.Minute, logging.Discard())
	n, err := sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Errorf("expected nothing expired, got %d", n)
	}
}

func TestSweep_SkipsWhenLockHeld(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	locks := &fakeLocks{held: map[string]bool{sweepLockName: true}}
	sweeper := NewMatchSweeper(h.store.Matches(), locks, nil, 30*time.Minute, time.Minute, logging.Discard())

	n, err := sweeper.Sweep(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected skipped sweep, got %d, %v", n, err)
	}
}

func TestSweep_LockError(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	boom := errors.New("redis down")
	sweeper := NewMatchSweeper(h.store.Matches(), &fakeLocks{err: boom}, nil, 30*time.Minute, time.Minute, logging.Discard())

	if _, err := sweeper.Sweep(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected lock error, got %v", err)
	}
}

func TestSweeperRun_DisabledWithZeroTTL(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	locks := &fakeLocks{}
	sweeper := NewMatchSweeper(h.store.Matches(), locks, nil, 0, time.Millisecond, logging.Discard())

	done := make(chan error, 1)
	go func() { done <- sweeper.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected Run to return immediately")
	}
	if locks.acquire != 0 {
		t.Errorf("expected no sweep, got %d lock attempts", locks.acquire)
	}
}

func TestSweeperRun_StopsOnCancel(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	sweeper := NewMatchSweeper(h.store.Matches(), nil, nil, time.Minute, 5*time.Millisecond, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sweeper.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected Run to return after cancel")
	}
}
