package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"carpool/internal/events"
	"carpool/internal/observability"
)

const notifyTimeout = 5 * time.Second

// Notifier receives lifecycle notifications after a transition committed.
// Delivery is fire-and-forget: it never reports failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, channel, event string, payload map[string]any)
}

// Sink is a named publisher the NotificationService fans out to.
type Sink struct {
	Name      string
	Publisher events.Publisher
}

// NotificationService delivers notifications to every sink in the
// background. Failures are logged and counted.
type NotificationService struct {
	sinks  []Sink
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(logger *slog.Logger, sinks ...Sink) *NotificationService {
	return &NotificationService{sinks: sinks, logger: logger}
}

// Notify hands the message to every sink without waiting for delivery.
func (s *NotificationService) Notify(ctx context.Context, channel, event string, payload map[string]any) {
	msg := events.Message{
		Channel:    channel,
		Event:      event,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}

	// The request context ends with the response; delivery must outlive it.
	base := context.WithoutCancel(ctx)

	for _, sink := range s.sinks {
		s.wg.Add(1)
		go func(sink Sink) {
			defer s.wg.Done()

			ctx, cancel := context.WithTimeout(base, notifyTimeout)
			defer cancel()

			if err := sink.Publisher.Publish(ctx, msg); err != nil {
				observability.NotificationsFailed.WithLabelValues(sink.Name).Inc()
				s.logger.WarnContext(ctx, "notification delivery failed",
					"sink", sink.Name,
					"channel", msg.Channel,
					"event", msg.Event,
					"error", err,
				)
			}
		}(sink)
	}
}

// Wait blocks until every in-flight delivery finished.
func (s *NotificationService) Wait() {
	s.wg.Wait()
}
