// Package channel is the client side of the broadcast transport used to
// announce task changes to other clients viewing the same project.
package channel

import (
	"context"
	"encoding/json"
)

// Handler receives the raw JSON payload of an inbound event.
type Handler func(data []byte)

// Channel is a bidirectional publish/subscribe connection.
type Channel interface {
	// Emit sends an event with payload encoded as JSON.
	Emit(ctx context.Context, event string, payload any) error
	// On registers h for inbound events named event.
	On(event string, h Handler)
	// Close tears the connection down.
	Close() error
}

// Frame is the wire envelope of every event.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}
