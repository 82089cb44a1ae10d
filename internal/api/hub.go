package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/phleb-loss-tracker/internal/session"
	"github.com/phleb-loss-tracker/internal/view"
)

const clientBuffer = 16

// ViewMessage is pushed to WebSocket clients after every change.
type ViewMessage struct {
	Type  string         `json:"type"`
	Event *session.Event `json:"event,omitempty"`
	View  view.ViewModel `json:"view"`
}

// Client is one WebSocket connection.
type Client struct {
	ID   string
	Send chan []byte
}

// Hub fans view updates out to connected clients. A client whose buffer is
// full is dropped instead of blocking the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *logrus.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

// Unregister removes a client and closes its Send channel. Unknown clients
// are ignored.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(client)
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
}

// Broadcast sends msg to every client.
func (h *Hub) Broadcast(msg ViewMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal view message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			h.logger.WithField("client_id", client.ID).Warn("Dropping slow WebSocket client")
			h.drop(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket upgrades the connection, sends the current view and then
// streams a view after every session change.
func (s *Server) handleWebSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := &Client{
		ID:   uuid.New().String(),
		Send: make(chan []byte, clientBuffer),
	}

	initial, err := json.Marshal(ViewMessage{Type: "view", View: view.ForSession(c.Request.Context(), s.session)})
	if err == nil {
		client.Send <- initial
	}
	s.hub.Register(client)

	s.logger.WithField("client_id", client.ID).Debug("WebSocket client connected")

	go s.writePump(client, ws)
	go s.readPump(client, ws)
}

// readPump discards inbound messages and unregisters the client on close.
func (s *Server) readPump(client *Client, ws *websocket.Conn) {
	defer func() {
		s.hub.Unregister(client)
		ws.Close()
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump writes queued messages until the Send channel closes.
func (s *Server) writePump(client *Client, ws *websocket.Conn) {
	defer ws.Close()

	for message := range client.Send {
		if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// publish renders the session once per event, only when someone listens.
func (s *Server) publish(ev session.Event) {
	if s.hub.ClientCount() == 0 {
		return
	}
	s.hub.Broadcast(ViewMessage{
		Type:  "view",
		Event: &ev,
		View:  view.ForSession(context.Background(), s.session),
	})
}
