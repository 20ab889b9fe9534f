package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorenzotomasdiez/debate-coach/internal/debate"
	"github.com/lorenzotomasdiez/debate-coach/internal/logger"
)

// Event types streamed to websocket clients.
const (
	EventTurn   = "turn"
	EventStatus = "status"
	EventError  = "error"
)

// Event is one message on the live stream.
type Event struct {
	Type         string       `json:"type"`
	Turn         *debate.Turn `json:"turn,omitempty"`
	Status       string       `json:"status,omitempty"`
	Error        string       `json:"error,omitempty"`
	AverageScore float64      `json:"average_score"`
	Timestamp    time.Time    `json:"timestamp"`
}

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
}

// clientBuffer is how many events a client may fall behind before the hub
// drops it.
const clientBuffer = 32

// Hub fans events out to every connected client. Each client has its own
// queue and writer goroutine, so a slow connection never blocks a
// broadcast and a connection never sees concurrent frames.
type Hub struct {
	mu      sync.Mutex
	clients map[uuid.UUID]*client
	log     logger.Logger
}

type client struct {
	conn Conn
	send chan Event
	done chan struct{}
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{clients: make(map[uuid.UUID]*client), log: log}
}

// Add registers c, starts its writer and returns its id.
func (h *Hub) Add(c Conn) uuid.UUID {
	id := uuid.New()
	cl := &client{conn: c, send: make(chan Event, clientBuffer), done: make(chan struct{})}
	h.mu.Lock()
	h.clients[id] = cl
	n := len(h.clients)
	h.mu.Unlock()

	go h.write(id, cl)
	h.log.Debug(context.Background(), "stream client joined", logger.String("client", id.String()), logger.Int("clients", n))
	return id
}

// Remove drops the client with id. It returns once the client's writer has
// finished, so the connection can be closed safely afterwards.
func (h *Hub) Remove(id uuid.UUID) {
	h.mu.Lock()
	cl, ok := h.clients[id]
	if ok {
		h.detachLocked(id, cl)
	}
	h.mu.Unlock()
	if ok {
		<-cl.done
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues ev for every client. A client whose queue is full is
// dropped.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cl := range h.clients {
		h.enqueueLocked(id, cl, ev)
	}
}

// Send queues ev for a single client.
func (h *Hub) Send(id uuid.UUID, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cl, ok := h.clients[id]; ok {
		h.enqueueLocked(id, cl, ev)
	}
}

func (h *Hub) enqueueLocked(id uuid.UUID, cl *client, ev Event) {
	select {
	case cl.send <- ev:
	default:
		h.detachLocked(id, cl)
		h.log.Warn(context.Background(), "stream client too slow, dropped",
			logger.String("client", id.String()), logger.Int("buffer", clientBuffer))
	}
}

// detachLocked unregisters cl and closes its queue. h.mu must be held.
func (h *Hub) detachLocked(id uuid.UUID, cl *client) {
	delete(h.clients, id)
	close(cl.send)
}

func (h *Hub) write(id uuid.UUID, cl *client) {
	defer close(cl.done)
	for ev := range cl.send {
		if err := cl.conn.WriteJSON(ev); err != nil {
			h.mu.Lock()
			if cur, ok := h.clients[id]; ok && cur == cl {
				h.detachLocked(id, cl)
			}
			h.mu.Unlock()
			h.log.Debug(context.Background(), "stream client dropped", logger.String("client", id.String()), logger.Err(err))
			return
		}
	}
}
