package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Hub tracks connected clients per user and delivers events to them. All
// client bookkeeping happens on the Run goroutine.
type Hub struct {
	// clients maps userID → that user's open connections.
	clients map[uuid.UUID]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	deliver    chan *userMsg
	count      chan chan int
	// stopped is closed when Run returns.
	stopped chan struct{}

	logger zerolog.Logger
}

type userMsg struct {
	userID uuid.UUID
	data   []byte
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan *userMsg, 256),
		count:      make(chan chan int),
		stopped:    make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and deliveries until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for c := range conns {
					h.drop(c)
				}
			}
			return

		case client := <-h.register:
			conns, ok := h.clients[client.userID]
			if !ok {
				conns = make(map[*Client]struct{})
				h.clients[client.userID] = conns
			}
			conns[client] = struct{}{}
			h.logger.Debug().Str("user_id", client.userID.String()).Int("connections", len(conns)).Msg("ws client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client.userID][client]; ok {
				h.drop(client)
				h.logger.Debug().Str("user_id", client.userID.String()).Msg("ws client disconnected")
			}

		case msg := <-h.deliver:
			for client := range h.clients[msg.userID] {
				select {
				case client.send <- msg.data:
				default:
					// buffer full
					h.drop(client)
				}
			}

		case reply := <-h.count:
			n := 0
			for _, conns := range h.clients {
				n += len(conns)
			}
			reply <- n
		}
	}
}

// drop must only be called from Run.
func (h *Hub) drop(c *Client) {
	conns := h.clients[c.userID]
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
}

// SendToUser queues an event for every connection of userID. Users without
// a connection miss it.
func (h *Hub) SendToUser(userID uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Msg("ws hub: marshal event")
		return
	}
	select {
	case <-h.stopped:
	case h.deliver <- &userMsg{userID: userID, data: data}:
	default:
		h.logger.Warn().Str("user_id", userID.String()).Str("type", event.Type).Msg("ws hub: delivery queue full, event dropped")
	}
}

// ConnectionCount reports open connections. It blocks until Run answers.
func (h *Hub) ConnectionCount(ctx context.Context) (int, error) {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
	case <-h.stopped:
		return 0, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	select {
	case n := <-reply:
		return n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
