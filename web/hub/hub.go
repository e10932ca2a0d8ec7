// Package hub fans raffle state out to every connected agent and display
// client. Commands arrive as JSON events over a websocket; each successful
// command broadcasts a fresh full snapshot to all clients, failures are
// reported only to the sender. Delivery is fire-and-forget: a client that
// misses an update resynchronizes through the snapshot pushed on reconnect.
package hub

import (
	"sync"

	"raffle-panel/logger"
	"raffle-panel/web/service"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
)

const (
	EventSyncState = "sync-state"
	EventError     = "error"
)

type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler runs one engine operation and returns the snapshot to broadcast.
type Handler func(data json.RawMessage) (*service.Snapshot, error)

type Hub struct {
	mu       sync.RWMutex
	clients  map[*Client]bool
	handlers map[string]Handler

	// sync produces the snapshot pushed to a client right after it connects.
	sync func() (*service.Snapshot, error)

	connected *atomic.Int64
}

func New(sync func() (*service.Snapshot, error)) *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		handlers:  make(map[string]Handler),
		sync:      sync,
		connected: atomic.NewInt64(0),
	}
}

// Handle registers the engine operation behind a client event. Events
// without a handler answer an error frame, which is how policy gating
// works: each policy only registers its own commands.
func (h *Hub) Handle(event string, handler Handler) {
	h.handlers[event] = handler
}

func (h *Hub) Connected() int64 {
	return h.connected.Load()
}

// Serve owns the connection until the client goes away.
func (h *Hub) Serve(conn *websocket.Conn) {
	client := newClient(conn)
	h.register(client)
	defer h.unregister(client)

	snapshot, err := h.sync()
	if err != nil {
		logger.Warning("initial sync failed:", err)
		client.sendError(err)
	} else {
		client.sendEvent(EventSyncState, snapshot)
	}

	client.run(h.dispatch)
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	h.connected.Inc()
	logger.Info("client connected:", client.id)
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
	h.connected.Dec()
	client.close()
	logger.Info("client disconnected:", client.id)
}

func (h *Hub) dispatch(client *Client, msg *Message) {
	handler, ok := h.handlers[msg.Event]
	if !ok {
		logger.Debugf("client %s sent unknown event %q", client.id, msg.Event)
		client.sendError(errUnknownEvent(msg.Event))
		return
	}

	snapshot, err := handler(msg.Data)
	if err != nil {
		logger.Warningf("event %q failed: %v", msg.Event, err)
		client.sendError(err)
		return
	}
	h.broadcast(snapshot)
}

// broadcast pushes a snapshot to every connected client, sender included.
// The frame is marshaled once and dropped for clients that cannot keep up.
func (h *Hub) broadcast(snapshot *service.Snapshot) {
	frame, err := marshalEvent(EventSyncState, snapshot)
	if err != nil {
		logger.Error("marshal snapshot:", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		client.send(frame)
	}
}

func marshalEvent(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(&Message{Event: event, Data: raw})
}

type unknownEventError string

func errUnknownEvent(event string) error {
	return unknownEventError(event)
}

func (e unknownEventError) Error() string {
	return "unknown event: " + string(e)
}
