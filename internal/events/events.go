// Package events carries lifecycle notifications to external brokers.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Event names published on lifecycle transitions.
const (
	MatchesUpdated   = "matches:updated"
	MatchAccepted    = "match:accepted"
	MatchRejected    = "match:rejected"
	BookingConfirmed = "booking:confirmed"
	RequestCancelled = "request:cancelled"
)

// RiderChannel is the channel of an identity acting as a rider.
func RiderChannel(id string) string { return "rider:" + id }

// DriverChannel is the channel of an identity acting as a driver.
func DriverChannel(id string) string { return "driver:" + id }

// Message is one notification addressed to a channel such as "rider:<id>".
type Message struct {
	Channel    string         `json:"channel"`
	Event      string         `json:"event"`
	Payload    map[string]any `json:"payload,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// Encode renders the message as JSON.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Publisher delivers messages to one destination.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
}

// LogPublisher writes messages to the structured log. It is the default
// when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	p.logger.InfoContext(ctx, "notification",
		"channel", msg.Channel,
		"event", msg.Event,
		"payload", msg.Payload,
	)
	return nil
}
