// package hub fans events out to page clients connected over websocket.
//
// The hub loop owns the client set; clients each run a read and a write pump. Slow clients whose
// send buffer fills up are disconnected rather than blocking the broadcast.
package hub

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tclive/internal/metrics"
	"github.com/desertthunder/tclive/internal/models"
	"github.com/desertthunder/tclive/internal/shared"
)

const broadcastBufferSize = 1000

// Hub maintains the set of active clients and broadcasts events to them.
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// welcome returns events sent to every client right after it connects.
	welcome func() []models.Event

	logger  *log.Logger
	metrics *metrics.Metrics

	statsMu          sync.Mutex
	totalConnections int64
	totalMessages    int64
	dropped          int64
}

// Options configures a [Hub].
type Options struct {
	Logger  *log.Logger
	Metrics *metrics.Metrics
	Welcome func() []models.Event
}

// Stats summarizes hub activity.
type Stats struct {
	ActiveClients     int   `json:"active_clients"`
	TotalConnections  int64 `json:"total_connections"`
	TotalMessages     int64 `json:"total_messages"`
	Dropped           int64 `json:"dropped"`
	BroadcastCapacity int   `json:"broadcast_capacity"`
	BroadcastUsage    int   `json:"broadcast_usage"`
}

// New creates a hub. Call [Hub.Run] before registering clients.
func New(opts Options) *Hub {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.Event, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		welcome:    opts.Welcome,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Run starts the hub's main loop and blocks until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case e := <-h.broadcast:
			h.broadcastEvent(e)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues an event for all clients. Returns false if the buffer is full.
func (h *Hub) Broadcast(e models.Event) bool {
	select {
	case h.broadcast <- e:
		return true
	default:
		h.logger.Warn("broadcast buffer full, dropping event", "type", e.Kind)
		return false
	}
}

// Publish implements the event sink used by the poller and scoreboard.
func (h *Hub) Publish(_ context.Context, e models.Event) error {
	if !h.Broadcast(e) {
		return fmt.Errorf("%w: broadcast buffer full", shared.ErrServiceUnavailable)
	}
	return nil
}

// ClientCount returns the number of active clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Stats returns hub counters.
func (h *Hub) Stats() Stats {
	active := h.ClientCount()

	h.statsMu.Lock()
	defer h.statsMu.Unlock()

	return Stats{
		ActiveClients:     active,
		TotalConnections:  h.totalConnections,
		TotalMessages:     h.totalMessages,
		Dropped:           h.dropped,
		BroadcastCapacity: cap(h.broadcast),
		BroadcastUsage:    len(h.broadcast),
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	h.clients[c] = true
	n := len(h.clients)
	h.clientsMu.Unlock()

	h.statsMu.Lock()
	h.totalConnections++
	h.statsMu.Unlock()

	h.metrics.SetClients(n)
	h.logger.Debug("client connected", "id", c.ID, "total", n)

	if h.welcome != nil {
		for _, e := range h.welcome() {
			c.TrySend(e)
		}
	}
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.Send)
	}
	n := len(h.clients)
	h.clientsMu.Unlock()

	if ok {
		h.metrics.SetClients(n)
		h.logger.Debug("client disconnected", "id", c.ID, "total", n)
	}
}

func (h *Hub) broadcastEvent(e models.Event) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	var sent, dropped int64
	for _, c := range clients {
		if c.TrySend(e) {
			sent++
			continue
		}
		dropped++
		h.logger.Warn("client buffer full, disconnecting", "id", c.ID)
		h.unregisterClient(c)
	}

	h.statsMu.Lock()
	if sent > 0 {
		h.totalMessages++
	}
	h.dropped += dropped
	h.statsMu.Unlock()
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.Info("shutting down hub", "clients", len(h.clients))
	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
	h.metrics.SetClients(0)
}
