// Package ws pushes run progress and report updates to connected dashboard
// clients over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// Message is the envelope for all WebSocket messages.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// clientCommand is what a connected client may send: narrow the connection
// to the runs it cares about. A connection that never subscribes receives
// every event.
type clientCommand struct {
	Type  string `json:"type"`
	RunID string `json:"run_id"`
}

const (
	commandSubscribe   = "subscribe"
	commandUnsubscribe = "unsubscribe"
)

// conn wraps a single WebSocket connection and its run subscriptions.
type conn struct {
	ws     *websocket.Conn
	cancel context.CancelFunc

	mu   sync.Mutex
	runs map[string]struct{}
}

func (c *conn) subscribe(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runs == nil {
		c.runs = make(map[string]struct{})
	}
	c.runs[runID] = struct{}{}
}

func (c *conn) unsubscribe(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.runs, runID)
}

// wants reports whether the connection should receive an event scoped to
// runID. Unscoped events and unscoped connections always match.
func (c *conn) wants(runID string) bool {
	if runID == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.runs) == 0 {
		return true
	}
	_, ok := c.runs[runID]
	return ok
}

// Hub manages all active WebSocket connections and fans run events out to
// the connections subscribed to them.
type Hub struct {
	mu    sync.RWMutex
	conns map[*conn]struct{}
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*conn]struct{}),
	}
}

// HandleWS returns an http.HandlerFunc that upgrades connections to WebSocket.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	c := &conn{ws: ws, cancel: cancel}

	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	slog.Info("websocket connected", "remote", r.RemoteAddr)

	// Read loop: subscription commands from the client, and disconnects.
	go func() {
		defer func() {
			h.remove(c)
			_ = ws.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			_, data, err := ws.Read(ctx)
			if err != nil {
				return
			}
			var cmd clientCommand
			if err := json.Unmarshal(data, &cmd); err != nil || cmd.RunID == "" {
				continue
			}
			switch cmd.Type {
			case commandSubscribe:
				c.subscribe(cmd.RunID)
			case commandUnsubscribe:
				c.unsubscribe(cmd.RunID)
			}
		}
	}()
}

// Broadcast sends a message to every connected client regardless of
// subscriptions.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	h.broadcast(ctx, "", msg)
}

func (h *Hub) broadcast(ctx context.Context, runID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("websocket marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.conns {
		if !c.wants(runID) {
			continue
		}
		if err := c.ws.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("websocket write failed", "error", err)
			go h.remove(c)
		}
	}
}

// ConnectionCount returns the number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		c.cancel()
		delete(h.conns, c)
		slog.Info("websocket disconnected")
	}
}
