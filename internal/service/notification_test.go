package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"carpool/internal/events"
	"carpool/internal/logging"
)

type capturePublisher struct {
	mu   sync.Mutex
	msgs []events.Message
	err  error
}

func (p *capturePublisher) Publish(ctx context.Context, msg events.Message) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func TestNotificationService_FansOut(t *testing.T) {
	t.Parallel()

	a := &capturePublisher{}
	b := &capturePublisher{}
	svc := NewNotificationService(logging.Discard(), Sink{Name: "a", Publisher: a}, Sink{Name: "b", Publisher: b})

	svc.Notify(context.Background(), events.RiderChannel("r1"), events.MatchesUpdated, map[string]any{"requestId": "req-1"})
	svc.Wait()

	for name, p := range map[string]*capturePublisher{"a": a, "b": b} {
		if len(p.msgs) != 1 {
			t.Fatalf("sink %s: expected 1 message, got %d", name, len(p.msgs))
		}
		msg := p.msgs[0]
		if msg.Channel != "rider:r1" || msg.Event != events.MatchesUpdated {
			t.Errorf("sink %s: unexpected message %+v", name, msg)
		}
		if msg.OccurredAt.IsZero() {
			t.Errorf("sink %s: expected timestamp", name)
		}
	}
}

func TestNotificationService_FailureDoesNotStopOtherSinks(t *testing.T) {
	t.Parallel()

	failing := &capturePublisher{err: errors.New("broker unavailable")}
	ok := &capturePublisher{}
	svc := NewNotificationService(logging.Discard(), Sink{Name: "failing", Publisher: failing}, Sink{Name: "ok", Publisher: ok})

	svc.Notify(context.Background(), events.DriverChannel("d1"), events.MatchAccepted, nil)
	svc.Wait()

	if len(ok.msgs) != 1 {
		t.Fatalf("expected healthy sink to receive the message, got %d", len(ok.msgs))
	}
}

func TestNotificationService_OutlivesCallerContext(t *testing.T) {
	t.Parallel()

	p := &capturePublisher{}
	svc := NewNotificationService(logging.Discard(), Sink{Name: "p", Publisher: p})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc.Notify(ctx, events.RiderChannel("r1"), events.MatchRejected, nil)
	svc.Wait()

	if len(p.msgs) != 1 {
		t.Fatalf("expected delivery despite cancelled caller context, got %d", len(p.msgs))
	}
}
