package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Envelope is the wire frame shared by command intake and case event
// fan-out: a typed JSON payload under a routing key. Intake keys carry the
// case or service id so every message of one dispute lands on the same
// partition and replays in order.
type Envelope struct {
	EventID   string          `json:"event_id"`
	Key       string          `json:"key"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEnvelope wraps a payload with a fresh event id and a UTC timestamp.
func NewEnvelope(key, msgType string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		EventID:   uuid.New().String(),
		Key:       key,
		Type:      msgType,
		Payload:   data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Publisher hands envelopes to the broker.
type Publisher interface {
	Publish(ctx context.Context, envelope Envelope) error
	Close() error
}

// MessageHandler processes one raw record from the broker.
type MessageHandler func(ctx context.Context, key, value []byte) error

// Worker pulls records from the broker and feeds them to a handler until
// its context ends.
type Worker interface {
	Start(ctx context.Context, handler MessageHandler) error
	Close() error
}
