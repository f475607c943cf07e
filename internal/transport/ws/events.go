package ws

import (
	"encoding/json"
	"time"

	"github.com/vedran77/notes/internal/domain"
)

// Client → Server
const (
	EventTypePing = "ping"
)

// Server → Client
const (
	EventTypeNoteShared = "note.shared"
	EventTypePong       = "pong"
	EventTypeError      = "error"
)

// Event is the envelope for every websocket message.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

type NoteSharedPayload struct {
	Note domain.Note `json:"note"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
