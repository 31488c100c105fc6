package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aion/internal/protocol"
)

func TestEventsURL(t *testing.T) {
	assert.Equal(t, "ws://127.0.0.1:8080/ws", New("", "").Events().wsURL)
	assert.Equal(t, "wss://example.com/ws", New("https://example.com", "").Events().wsURL)

	s := New("", "secret").Events()
	assert.Equal(t, "Bearer secret", s.header.Get("Authorization"))
}

func TestSubscriberReceivesEvents(t *testing.T) {
	c, _ := newServer(t, "secret")

	ready := make(chan struct{}, 1)
	actions := make(chan protocol.ActionPayload, 4)
	modes := make(chan string, 4)
	disconnected := make(chan struct{}, 1)

	s := c.Events()
	s.OnReady = func() { ready <- struct{}{} }
	s.OnAction = func(p protocol.ActionPayload) { actions <- p }
	s.OnMode = func(m string) { modes <- m }
	s.OnDisconnect = func() { disconnected <- struct{}{} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("subscription was not acknowledged")
	}

	_, err := c.SetMode(ctx, "production")
	require.NoError(t, err)
	_, err = c.Move(ctx, 4, 2)
	require.NoError(t, err)

	select {
	case m := <-modes:
		assert.Equal(t, "production", m)
	case <-time.After(5 * time.Second):
		t.Fatal("no mode event")
	}
	select {
	case p := <-actions:
		assert.Equal(t, "mouse.move", p.Action)
		assert.Equal(t, "Mouse moved to (4, 2)", p.Message)
		assert.Equal(t, "production", p.Mode)
	case <-time.After(5 * time.Second):
		t.Fatal("no action event")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop")
	}
	select {
	case <-disconnected:
	default:
		t.Fatal("disconnect was not reported")
	}
}
