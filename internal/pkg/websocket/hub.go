package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Stream names a live feed a client can subscribe to
type Stream string

const (
	StreamDashboard Stream = "dashboard"
	StreamRequests  Stream = "requests"
	StreamCount     Stream = "studentCount"
)

// Message is the envelope of every frame pushed to a client
type Message struct {
	// Stream the payload belongs to
	Type Stream `json:"type"`

	// Latest snapshot of the stream
	Data interface{} `json:"data"`

	// Time the snapshot was sent
	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of active clients per stream
type Hub struct {
	// Registered clients organized by stream
	clients map[Stream]map[*Client]bool

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	// Logger for Hub operations
	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[Stream]map[*Client]bool),
		logger:     logger,
	}
}

// Run handles client registrations until ctx is done, then disconnects
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return
		}
	}
}

// join hands client to Run. It reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave hands client to Run for removal, or stops it directly once the hub
// has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.stop()
	}
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.stream]; !ok {
		h.clients[client.stream] = make(map[*Client]bool)
	}
	h.clients[client.stream][client] = true

	h.logger.Info().
		Str("stream", string(client.stream)).
		Str("userID", client.userID).
		Msg("Client registered")
}

// unregisterClient unregisters a client and stops its subscription
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.stream]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, client.stream)
	}
	client.stop()

	h.logger.Info().
		Str("stream", string(client.stream)).
		Str("userID", client.userID).
		Msg("Client unregistered")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for stream, clients := range h.clients {
		for client := range clients {
			client.stop()
		}
		delete(h.clients, stream)
	}
	h.logger.Info().Msg("All websocket clients disconnected")
}

// ClientCount returns the number of connected clients of a stream
func (h *Hub) ClientCount(stream Stream) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[stream])
}
