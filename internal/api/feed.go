package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/relook-app/relook/internal/domain"
	"github.com/relook-app/relook/internal/infra/metrics"
)

// ─── Live notification feed ─────────────────────────────────────────────────
// Every engine notification is pushed to connected websocket clients as a
// JSON text frame. Slow clients are dropped rather than blocking the engine.

const feedBuffer = 64

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	s := &subscriber{conn: conn, send: make(chan []byte, feedBuffer)}
	go s.writePump()
	return s
}

func (s *subscriber) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Feed fans notifications out to websocket subscribers. It implements
// domain.Notifier.
type Feed struct {
	mu       sync.RWMutex
	subs     map[*subscriber]bool
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewFeed creates an empty feed. checkOrigin may be nil to accept any origin.
func NewFeed(checkOrigin func(r *http.Request) bool, log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Feed{
		subs:     make(map[*subscriber]bool),
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		log:      log,
	}
}

// Notify broadcasts n to every subscriber.
func (f *Feed) Notify(n domain.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		f.log.Warn("marshal notification", zap.Error(err))
		return
	}

	// Sends are non-blocking, so the lock is held across them; remove and
	// Close cannot close a channel mid-send.
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		select {
		case s.send <- data:
		default:
			f.log.Warn("live client too slow, disconnecting")
			f.dropLocked(s)
		}
	}
}

// Count returns the number of connected subscribers.
func (f *Feed) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// ServeHTTP upgrades the request and keeps the client subscribed until it
// disconnects.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	s := f.add(conn)
	f.log.Debug("live client connected", zap.String("remote", r.RemoteAddr))

	go func() {
		defer func() {
			f.remove(s)
			f.log.Debug("live client disconnected", zap.String("remote", r.RemoteAddr))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Close disconnects every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for s := range f.subs {
		delete(f.subs, s)
		close(s.send)
	}
	metrics.LiveSubscribers.Set(0)
}

func (f *Feed) add(conn *websocket.Conn) *subscriber {
	s := newSubscriber(conn)
	f.mu.Lock()
	f.subs[s] = true
	metrics.LiveSubscribers.Set(float64(len(f.subs)))
	f.mu.Unlock()
	return s
}

func (f *Feed) remove(s *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropLocked(s)
}

// dropLocked unsubscribes s. f.mu must be held for writing.
func (f *Feed) dropLocked(s *subscriber) {
	if _, ok := f.subs[s]; ok {
		delete(f.subs, s)
		close(s.send)
		metrics.LiveSubscribers.Set(float64(len(f.subs)))
	}
}
