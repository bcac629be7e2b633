package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// ErrHubClosed is returned when subscribing to a closed hub.
var ErrHubClosed = errors.New("event hub closed")

// Conn is the subset of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

var _ Conn = (*websocket.Conn)(nil)

type session struct {
	ownerID string
	conn    Conn
	mu      sync.Mutex
}

func (s *session) send(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(e)
}

// Hub fans events out to live websocket sessions of fleet owners. A session
// only receives events for its own owner id; an empty owner id receives all.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
	closed   bool
	logger   *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions: make(map[string]*session),
		logger:   logger,
	}
}

// Subscribe registers conn for ownerID's events and returns the session id.
func (h *Hub) Subscribe(ownerID string, conn Conn) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return "", ErrHubClosed
	}
	id := uuid.New().String()
	h.sessions[id] = &session{ownerID: ownerID, conn: conn}
	return id, nil
}

// Unsubscribe removes and closes a session.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if ok {
		_ = s.conn.Close()
	}
}

// Sessions returns the number of live sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Publish sends e to every matching session. Sessions that fail to accept
// the write are dropped.
func (h *Hub) Publish(_ context.Context, e Event) error {
	h.mu.RLock()
	targets := make(map[string]*session)
	for id, s := range h.sessions {
		if s.ownerID == "" || e.OwnerID == "" || s.ownerID == e.OwnerID {
			targets[id] = s
		}
	}
	h.mu.RUnlock()

	for id, s := range targets {
		if err := s.send(e); err != nil {
			h.logger.Warn("dropping live session", "session_id", id, "error", err)
			h.Unsubscribe(id)
		}
	}
	return nil
}

// Close drops every session and rejects new subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*session)
	h.closed = true
	h.mu.Unlock()

	for _, s := range sessions {
		_ = s.conn.Close()
	}
}
