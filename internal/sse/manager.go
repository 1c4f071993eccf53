package sse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shutterboxapp/shutterbox/internal/id"
)

const (
	queueSize   = 1000
	clientQueue = 100

	// DefaultHistory is how many events are kept for Last-Event-ID replay.
	DefaultHistory = 256
)

// Client is one connected event stream.
type Client struct {
	ID          string
	ConnectedAt time.Time
	Events      chan Event
	Done        chan struct{}
	filter      Filter
}

// Replay is what a reconnecting client missed. Gap is set when the
// history no longer reaches back to the client's last event, so the
// client must refetch instead of patching its state.
type Replay struct {
	Events []Event
	Gap    bool
}

// Manager sequences events, keeps a short history and fans them out to
// connected clients.
type Manager struct {
	logger *slog.Logger
	queue  chan Event
	wg     sync.WaitGroup

	// mu guards clients, seq and history. Broadcast holds it for writing so
	// Connect sees history and registration as one step.
	mu      sync.RWMutex
	clients map[string]*Client
	seq     uint64
	history []Event
	limit   int

	closeMu sync.RWMutex
	closed  bool
}

// NewManager creates a manager keeping DefaultHistory events.
func NewManager(logger *slog.Logger) *Manager {
	return NewManagerWithHistory(logger, DefaultHistory)
}

// NewManagerWithHistory creates a manager keeping the last limit events.
func NewManagerWithHistory(logger *slog.Logger, limit int) *Manager {
	if limit < 1 {
		limit = 1
	}
	return &Manager{
		logger:  logger,
		queue:   make(chan Event, queueSize),
		clients: make(map[string]*Client),
		limit:   limit,
	}
}

// Start runs the broadcast loop until ctx is done or Shutdown is called.
// Call it once, in its own goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	m.logger.Info("SSE manager starting")

	for {
		select {
		case event, ok := <-m.queue:
			if !ok {
				m.closeAllClients()
				return
			}
			m.broadcast(event)

		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops accepting events, drains the queue and closes all
// clients.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closeMu.Lock()
	if m.closed {
		m.closeMu.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("SSE manager shutdown complete")
		return nil
	case <-ctx.Done():
		m.logger.Warn("SSE event drain timeout, some events may be lost")
		return ctx.Err()
	}
}

// Emit queues an event. Events emitted after Shutdown, or while the queue
// is full, are dropped.
func (m *Manager) Emit(event Event) {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()

	if m.closed {
		return
	}

	select {
	case m.queue <- event:
	default:
		m.logger.Error("SSE queue full, dropping event",
			slog.String("event_type", string(event.Type)))
	}
}

func (m *Manager) broadcast(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	event.ID = m.seq
	if len(m.history) == m.limit {
		m.history = append(m.history[:0], m.history[1:]...)
	}
	m.history = append(m.history, event)

	var delivered, dropped int
	for _, c := range m.clients {
		if !c.filter.Match(event.Type) {
			continue
		}
		select {
		case c.Events <- event:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow client",
				slog.String("client_id", c.ID),
				slog.Uint64("event_id", event.ID))
		}
	}

	m.logger.Debug("event broadcast",
		slog.String("event_type", string(event.Type)),
		slog.Uint64("event_id", event.ID),
		slog.Group("stats",
			slog.Int("delivered", delivered),
			slog.Int("dropped", dropped)))
}

// Connect registers a client receiving events that match filter. A
// non-zero lastEventID asks for the matching events after it.
func (m *Manager) Connect(filter Filter, lastEventID uint64) (*Client, Replay, error) {
	clientID, err := id.Generate(id.PrefixClient)
	if err != nil {
		return nil, Replay{}, err
	}

	c := &Client{
		ID:          clientID,
		ConnectedAt: time.Now(),
		Events:      make(chan Event, clientQueue),
		Done:        make(chan struct{}),
		filter:      filter,
	}

	m.mu.Lock()
	var replay Replay
	if lastEventID > 0 {
		replay = m.replayLocked(filter, lastEventID)
	}
	m.clients[c.ID] = c
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("SSE client connected",
		slog.String("client_id", clientID),
		slog.Int("replayed", len(replay.Events)),
		slog.Int("total_clients", total))
	return c, replay, nil
}

func (m *Manager) replayLocked(filter Filter, after uint64) Replay {
	if after >= m.seq {
		return Replay{}
	}
	var r Replay
	if len(m.history) == 0 || m.history[0].ID > after+1 {
		r.Gap = true
	}
	for _, e := range m.history {
		if e.ID > after && filter.Match(e.Type) {
			r.Events = append(r.Events, e)
		}
	}
	return r
}

// Disconnect removes a client and closes its channels.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	c, ok := m.clients[clientID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, clientID)
	total := len(m.clients)
	m.mu.Unlock()

	close(c.Done)
	close(c.Events)

	m.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(c.ConnectedAt)),
		slog.Int("total_clients", total))
}

// ClientCount returns the number of connected clients.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// LastEventID returns the ID of the newest broadcast event.
func (m *Manager) LastEventID() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seq
}

func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.clients {
		close(c.Done)
		close(c.Events)
	}
	clear(m.clients)

	m.logger.Info("all SSE clients disconnected")
}
