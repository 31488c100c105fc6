// Package protocol defines the messages exchanged on the event stream.
package protocol

import "encoding/json"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeAction is sent by the server after an input action completes
	TypeAction MessageType = "action"

	// TypeMode is sent by the server after a mode change, or by a client to request one
	TypeMode MessageType = "mode"

	// TypeError is sent by the server when a client request is rejected
	TypeError MessageType = "error"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"

	// TypePong answers TypePing
	TypePong MessageType = "pong"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// ActionPayload is the payload for TypeAction
type ActionPayload struct {
	Action    string `json:"action"`
	Message   string `json:"message"`
	Mode      string `json:"mode"`
	Timestamp int64  `json:"ts"` // Unix ms timestamp
}

// ModePayload is the payload for TypeMode
type ModePayload struct {
	Mode string `json:"mode"`
}

// ErrorPayload is the payload for TypeError
type ErrorPayload struct {
	Message string `json:"message"`
}

// DecodePayload re-decodes a generic payload into out.
func DecodePayload(payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
