package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aion/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The server only listens on loopback; browsers on the same host may connect.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSManager handles WebSocket connections and broadcasting
type WSManager struct {
	server     *Server
	clients    map[*WebSocketClient]bool
	clientsMu  sync.Mutex
	broadcast  chan protocol.Message
	unregister chan *WebSocketClient
	shutdown   chan struct{}
	stopOnce   sync.Once
}

// WebSocketClient represents a connected event subscriber
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	ip      string
}

func newWSManager(s *Server) *WSManager {
	return &WSManager{
		server:     s,
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan protocol.Message),
		unregister: make(chan *WebSocketClient),
		shutdown:   make(chan struct{}),
	}
}

func (m *WSManager) start() {
	for {
		select {
		case client := <-m.unregister:
			m.removeClient(client)

		case message := <-m.broadcast:
			m.broadcastMessage(message)

		case <-m.shutdown:
			m.clientsMu.Lock()
			for client := range m.clients {
				delete(m.clients, client)
				close(client.send)
			}
			m.clientsMu.Unlock()
			return
		}
	}
}

func (m *WSManager) stop() {
	m.stopOnce.Do(func() { close(m.shutdown) })
}

// addClient registers client unless the hub has shut down. The check is made
// under clientsMu so a client cannot slip in after the final sweep.
func (m *WSManager) addClient(client *WebSocketClient) bool {
	m.clientsMu.Lock()
	select {
	case <-m.shutdown:
		m.clientsMu.Unlock()
		return false
	default:
	}
	m.clients[client] = true
	total := len(m.clients)
	m.clientsMu.Unlock()
	log.Printf("WS: New client registered from %s. Total clients: %d", client.ip, total)
	return true
}

func (m *WSManager) removeClient(client *WebSocketClient) {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	if _, ok := m.clients[client]; ok {
		delete(m.clients, client)
		close(client.send)
		log.Printf("WS: Client unregistered from %s. Total clients: %d", client.ip, len(m.clients))
	}
}

// ClientCount returns the number of connected subscribers
func (m *WSManager) ClientCount() int {
	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	return len(m.clients)
}

func (m *WSManager) broadcastMessage(message protocol.Message) {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("WS: Failed to marshal broadcast message: %v", err)
		return
	}

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	for client := range m.clients {
		select {
		case client.send <- jsonMsg:
		default:
			// Slow subscriber; drop it rather than stall the hub.
			close(client.send)
			delete(m.clients, client)
		}
	}
}

// sendTo queues data for a single client if it is still registered.
func (m *WSManager) sendTo(client *WebSocketClient, message protocol.Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("WS: Failed to marshal message: %v", err)
		return
	}

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	if !m.clients[client] {
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

// Broadcast queues a message for every connected client
func (m *WSManager) Broadcast(message protocol.Message) {
	select {
	case m.broadcast <- message:
	case <-m.shutdown:
	}
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS: Failed to upgrade connection: %v", err)
		return
	}

	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 256),
		ip:      r.RemoteAddr,
	}

	if !m.addClient(client) {
		conn.Close()
		return
	}

	// Start pump goroutines
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS: Read error: %v", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(50 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("WS: Invalid message format: %v", err)
		c.manager.sendTo(c, protocol.Message{
			Type:    protocol.TypeError,
			Payload: protocol.ErrorPayload{Message: "invalid message format"},
		})
		return
	}

	switch msg.Type {
	case protocol.TypePing:
		c.manager.sendTo(c, protocol.Message{Type: protocol.TypePong})

	case protocol.TypeMode:
		var payload protocol.ModePayload
		if err := protocol.DecodePayload(msg.Payload, &payload); err != nil {
			log.Printf("WS: Invalid mode payload: %v", err)
			return
		}

		log.Printf("WS: Received mode change to '%s' from %s", payload.Mode, c.ip)

		// A successful change is broadcast to every client by the dispatcher observer.
		if _, err := c.manager.server.dispatcher.SetMode(payload.Mode); err != nil {
			c.manager.sendTo(c, protocol.Message{
				Type:    protocol.TypeError,
				Payload: protocol.ErrorPayload{Message: invalidModeMessage},
			})
		}

	default:
		log.Printf("WS: Ignoring message type %q from %s", msg.Type, c.ip)
	}
}
