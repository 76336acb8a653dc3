package hub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/teslashibe/go-rover/internal/log"
)

// Handlers are optional callbacks invoked by the hub. They run on the
// client's read goroutine (OnMessage) or the hub goroutine (OnConnect,
// OnDisconnect) and must not block.
type Handlers struct {
	OnConnect    func(c *Client)
	OnMessage    func(c *Client, data []byte)
	OnDisconnect func(c *Client)
}

type directMsg struct {
	client *Client
	msg    Message
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Name for logging
	name string

	handlers Handlers

	// Registered clients
	clients map[*Client]bool

	// Outbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Messages for a single client
	unicast chan directMsg

	mu      sync.RWMutex
	running bool
	done    chan struct{}
}

// New creates a new Hub
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		unicast:    make(chan directMsg, 64),
		done:       make(chan struct{}),
	}
}

// SetHandlers installs callbacks. Call before Run.
func (h *Hub) SetHandlers(handlers Handlers) {
	h.handlers = handlers
}

// Run starts the hub's main loop and blocks until ctx is cancelled.
// All client send channels are closed on exit.
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()
	defer h.shutdown()

	logger := log.With("hub", h.name)
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			logger.Info("client connected", "client", client.ID, "total", count)
			if h.handlers.OnConnect != nil {
				h.handlers.OnConnect(client)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if ok {
				logger.Info("client disconnected", "client", client.ID, "remaining", count)
				if h.handlers.OnDisconnect != nil {
					h.handlers.OnDisconnect(client)
				}
			}

		case u := <-h.unicast:
			h.mu.RLock()
			if h.clients[u.client] {
				select {
				case u.client.send <- u.msg:
				default:
				}
			}
			h.mu.RUnlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client: drop it rather than stall everyone.
					close(client.send)
					delete(h.clients, client)
					logger.Warn("dropped slow client", "client", client.ID)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.running = false
	close(h.done)
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		log.Warn("broadcast channel full, dropping message", "hub", h.name)
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(JSON(data))
	return nil
}

// BroadcastBinary broadcasts binary data (e.g., camera frames)
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(JPEG(data))
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}
