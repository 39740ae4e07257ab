package feed

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"github.com/gareth0712/hyperliquid-client/internal/bus"
	"github.com/gareth0712/hyperliquid-client/internal/codec"
	"github.com/gareth0712/hyperliquid-client/internal/obs"
	"github.com/gareth0712/hyperliquid-client/pkg/exception"
	"github.com/gareth0712/hyperliquid-client/pkg/websocket"
)

// Manager runs one dialer/read-pump goroutine pair per open session and
// publishes everything they see onto the shared inbound queue. Lifecycle
// events (opened, dial failed, closed) use the blocking publish path so they
// cannot be lost; feed messages are dropped when the queue is full.
type Manager struct {
	url       string
	queue     *bus.Queue
	stats     *obs.PoolStats
	pingEvery time.Duration

	mu       sync.Mutex
	closed   bool
	sessions map[uuid.UUID]*session
	wg       sync.WaitGroup
}

type session struct {
	id     uuid.UUID
	connID int
	client *websocket.Client
	done   chan struct{}
	once   sync.Once
}

// NewManager creates a manager publishing onto queue. pingEvery of zero
// disables the keepalive ticker.
func NewManager(url string, queue *bus.Queue, stats *obs.PoolStats, pingEvery time.Duration) *Manager {
	return &Manager{
		url:       url,
		queue:     queue,
		stats:     stats,
		pingEvery: pingEvery,
		sessions:  make(map[uuid.UUID]*session),
	}
}

// Open dials the feed for one connection after an optional delay. The delay
// carries both the staggered start and reconnect backoff waits, so the
// caller's loop never sleeps. The outcome arrives on the queue as an opened
// or dial-failed event tagged with id.
func (m *Manager) Open(ctx context.Context, connID int, id uuid.UUID, delay time.Duration) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}

		client, err := websocket.Dial(ctx, m.url)
		if err != nil {
			_ = m.queue.Publish(ctx, bus.Event{
				Kind:    bus.EventDialFailed,
				ConnID:  connID,
				Session: id,
				Err:     err,
				At:      time.Now(),
			})
			return
		}

		s := &session{
			id:     id,
			connID: connID,
			client: client,
			done:   make(chan struct{}),
		}
		if !m.register(s) {
			_ = client.Close()
			return
		}
		if err := m.queue.Publish(ctx, bus.Event{
			Kind:    bus.EventOpened,
			ConnID:  connID,
			Session: id,
			At:      time.Now(),
		}); err != nil {
			m.drop(s)
			return
		}

		if m.pingEvery > 0 {
			m.wg.Add(1)
			go m.keepalive(s)
		}
		m.readPump(ctx, s)
	}()
}

// Send writes one JSON message on an open session.
func (m *Manager) Send(id uuid.UUID, payload any) error {
	m.mu.Lock()
	s := m.sessions[id]
	m.mu.Unlock()
	if s == nil {
		return errors.Wrapf(exception.ErrTransportClosed, "session %s not open", id)
	}
	return s.client.WriteJSON(payload)
}

// CloseSession tears down one session. The pump's trailing closed event
// carries the old session id and is rejected as stale by the state machine.
func (m *Manager) CloseSession(id uuid.UUID) {
	m.mu.Lock()
	s := m.sessions[id]
	m.mu.Unlock()
	if s != nil {
		m.drop(s)
	}
}

// Close tears down every session and waits for all pumps to exit. Callers
// cancel the context passed to Open first so blocked publishes unwind.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	open := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	m.mu.Unlock()

	for _, s := range open {
		m.drop(s)
	}
	m.wg.Wait()
}

func (m *Manager) register(s *session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.sessions[s.id] = s
	return true
}

func (m *Manager) drop(s *session) {
	s.once.Do(func() {
		close(s.done)
		_ = s.client.Close()
	})
	m.mu.Lock()
	if m.sessions[s.id] == s {
		delete(m.sessions, s.id)
	}
	m.mu.Unlock()
}

func (m *Manager) readPump(ctx context.Context, s *session) {
	for {
		payload, err := s.client.ReadMessage()
		if err != nil {
			m.drop(s)
			_ = m.queue.Publish(ctx, bus.Event{
				Kind:    bus.EventClosed,
				ConnID:  s.connID,
				Session: s.id,
				Err:     err,
				At:      time.Now(),
			})
			return
		}
		if err := m.queue.TryPublish(bus.Event{
			Kind:    bus.EventMessage,
			ConnID:  s.connID,
			Session: s.id,
			Payload: payload,
			At:      time.Now(),
		}); err != nil {
			m.stats.RecordQueueDrop()
			logs.Warnf("conn %d dropped frame, reason: %v", s.connID, err)
		}
	}
}

func (m *Manager) keepalive(s *session) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.pingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.client.WriteJSON(codec.EncodePing()); err != nil {
				logs.Debugf("conn %d ping failed, err: %+v", s.connID, err)
				return
			}
		}
	}
}
