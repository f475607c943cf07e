package ws

import (
	"github.com/google/uuid"
	"github.com/vedran77/notes/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNoteShared(viewerID uuid.UUID, note *domain.Note) {
	evt, err := NewEvent(EventTypeNoteShared, NoteSharedPayload{Note: *note})
	if err != nil {
		n.hub.logger.Error().Err(err).Msg("ws notifier: marshal event")
		return
	}
	n.hub.SendToUser(viewerID, evt)
}
