package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
)

// Message is the envelope for every websocket frame sent to clients.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message types pushed by the server.
const (
	// MessageCityUpdated carries a freshly exported GeoJSON feature
	// collection after a watch rebuild.
	MessageCityUpdated = "city_updated"

	// MessageRebuildFailed reports a rebuild that could not complete.
	MessageRebuildFailed = "rebuild_failed"
)

type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc
}

// Hub tracks websocket connections and broadcasts messages to all of
// them. Safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*conn]struct{}
	logger *log.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		conns:  make(map[*conn]struct{}),
		logger: logger,
	}
}

// HandleWS upgrades the request to a websocket and registers the
// connection. The connection stays open until the client disconnects
// or the server shuts down. Origin checks are handled by the CORS
// middleware in front of this handler.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed", "err", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ws: ws, cancel: cancel}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", "clients", h.ConnectionCount())

	// Clients never send application data; the read loop only notices
	// disconnects and control frames.
	go func() {
		defer h.remove(c)
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends a message to every connected client. Connections
// that fail to write are dropped.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal websocket message", "err", err)
		return
	}

	h.mu.RLock()
	conns := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
			go h.remove(c)
		}
	}
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll disconnects every client. Used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	conns := make([]*conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.conns = make(map[*conn]struct{})
	h.mu.Unlock()

	for _, c := range conns {
		c.cancel()
		_ = c.ws.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	_, ok := h.conns[c]
	delete(h.conns, c)
	h.mu.Unlock()

	if !ok {
		return
	}
	c.cancel()
	_ = c.ws.Close(websocket.StatusNormalClosure, "")
	h.logger.Debug("websocket client disconnected", "clients", h.ConnectionCount())
}
