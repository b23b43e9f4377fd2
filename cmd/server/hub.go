package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"token-crowdsale/internal/domain"
	"token-crowdsale/internal/observability"
)

const (
	clientSendBuffer = 64
	writeTimeout     = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// hub broadcasts sale events to connected WebSocket clients. Clients that
// fall behind their send buffer are dropped.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	logger  *log.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newHub(logger *log.Logger) *hub {
	return &hub{
		clients: make(map[*wsClient]struct{}),
		logger:  logger,
	}
}

// handleWS upgrades the connection and streams sale events.
func (h *hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	observability.SetWSClients(n)

	go h.writePump(client)
	go h.readPump(client)
}

// broadcast fans an event out to every connected client.
func (h *hub) broadcast(ev domain.SaleEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Printf("Failed to marshal sale event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow client: drop it.
			h.removeLocked(client)
		}
	}
}

// writePump drains the client's send channel onto the connection.
func (h *hub) writePump(client *wsClient) {
	defer client.conn.Close()

	for payload := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(client)
			return
		}
	}
	client.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards inbound messages and detects disconnects.
func (h *hub) readPump(client *wsClient) {
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			h.remove(client)
			return
		}
	}
}

func (h *hub) remove(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked must be called with the mutex held.
func (h *hub) removeLocked(client *wsClient) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	observability.SetWSClients(len(h.clients))
}

// closeAll disconnects every client during shutdown.
func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
		client.conn.Close()
	}
	observability.SetWSClients(0)
}
