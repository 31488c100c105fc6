package client

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"aion/internal/protocol"
)

// Subscriber follows the server's event stream, reconnecting until its
// context is cancelled.
type Subscriber struct {
	wsURL  string
	header http.Header
	send   chan protocol.Message
	retry  time.Duration

	// Callbacks
	OnReady      func()
	OnDisconnect func()
	OnAction     func(protocol.ActionPayload)
	OnMode       func(mode string)
	OnError      func(message string)
}

// Events returns a Subscriber for the server's /ws stream.
func (c *Client) Events() *Subscriber {
	wsURL := c.baseURL + "/ws"
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	return &Subscriber{
		wsURL:  wsURL,
		header: header,
		send:   make(chan protocol.Message, 16),
		retry:  5 * time.Second,
	}
}

// Run connects and dispatches events until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		s.connect(ctx)

		// If connect returns, it means we disconnected. Wait a bit and retry.
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.retry):
			log.Println("Events: Attempting reconnection...")
		}
	}
}

func (s *Subscriber) connect(ctx context.Context) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, s.header)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("Events: Connection failed: %v", err)
		}
		return
	}
	defer conn.Close()

	defer func() {
		if s.OnDisconnect != nil {
			s.OnDisconnect()
		}
	}()
	log.Printf("Events: Connected to %s", s.wsURL)

	// The server answers in order, so the pong confirms the subscription.
	s.send <- protocol.Message{Type: protocol.TypePing}

	stop := make(chan struct{})
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		s.writePump(ctx, conn, stop)
	}()

	s.readPump(conn)
	close(stop)
	<-writeDone
}

func (s *Subscriber) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(10*time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Events: Read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Events: Invalid message: %v", err)
			continue
		}
		s.handleMessage(msg)
	}
}

func (s *Subscriber) writePump(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	for {
		select {
		case msg := <-s.send:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("Events: Write error: %v", err)
				return
			}

		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
			return

		case <-stop:
			return
		}
	}
}

func (s *Subscriber) handleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypePong:
		if s.OnReady != nil {
			s.OnReady()
		}

	case protocol.TypeAction:
		var payload protocol.ActionPayload
		if err := protocol.DecodePayload(msg.Payload, &payload); err != nil {
			log.Printf("Events: Invalid action payload: %v", err)
			return
		}
		if s.OnAction != nil {
			s.OnAction(payload)
		}

	case protocol.TypeMode:
		var payload protocol.ModePayload
		if err := protocol.DecodePayload(msg.Payload, &payload); err != nil {
			log.Printf("Events: Invalid mode payload: %v", err)
			return
		}
		if s.OnMode != nil {
			s.OnMode(payload.Mode)
		}

	case protocol.TypeError:
		var payload protocol.ErrorPayload
		if err := protocol.DecodePayload(msg.Payload, &payload); err != nil {
			return
		}
		if s.OnError != nil {
			s.OnError(payload.Message)
		}
	}
}
