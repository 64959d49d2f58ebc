// Package realtime pushes lifecycle notifications to connected websocket
// clients.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"carpool/internal/events"
)

const writeWait = 5 * time.Second

// Conn is the part of *websocket.Conn the hub uses.
type Conn interface {
	WriteJSON(v any) error
	ReadMessage() (int, []byte, error)
	SetWriteDeadline(t time.Time) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

// Session is one connected client.
type Session struct {
	conn     Conn
	channels []string
	mu       sync.Mutex
}

// Send writes a message to the client.
func (s *Session) Send(msg events.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(msg)
}

// Hub routes messages to the sessions subscribed to their channel.
// An identity is subscribed to both its rider and driver channels.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]map[*Session]struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{channels: make(map[string]map[*Session]struct{})}
}

// Register subscribes conn to the channels of identity.
func (h *Hub) Register(identity string, conn Conn) *Session {
	s := &Session{
		conn:     conn,
		channels: []string{events.RiderChannel(identity), events.DriverChannel(identity)},
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range s.channels {
		subs, ok := h.channels[ch]
		if !ok {
			subs = make(map[*Session]struct{})
			h.channels[ch] = subs
		}
		subs[s] = struct{}{}
	}
	return s
}

// Unregister removes a session and closes its connection.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	for _, ch := range s.channels {
		if subs, ok := h.channels[ch]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(h.channels, ch)
			}
		}
	}
	h.mu.Unlock()
	_ = s.conn.Close()
}

// Serve reads from the session until the client goes away, then
// unregisters it. Incoming frames are ignored.
func (h *Hub) Serve(s *Session) {
	defer h.Unregister(s)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Subscribers returns how many sessions listen on channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

// Publish sends msg to every session on its channel. A channel without
// sessions is not an error. The first write error is returned after every
// session has been tried.
func (h *Hub) Publish(ctx context.Context, msg events.Message) error {
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.channels[msg.Channel]))
	for s := range h.channels[msg.Channel] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	var firstErr error
	for _, s := range targets {
		if err := s.Send(msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
