// Package ws pushes project lifecycle events to connected clients so open
// list views can refresh without polling.
package ws

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event describes one project mutation.
type Event struct {
	Type      string    `json:"type"` // project_created, project_updated, project_deleted
	ProjectID uuid.UUID `json:"projectId"`
	Name      string    `json:"name"`
}

const (
	EventProjectCreated = "project_created"
	EventProjectUpdated = "project_updated"
	EventProjectDeleted = "project_deleted"
)

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Publish queues an event for every connected client. The hub never blocks
// the caller; a full queue drops the event.
func (h *Hub) Publish(evt Event) {
	select {
	case h.broadcast <- evt:
	default:
		h.log.Warn("event queue full, dropping event", zap.String("type", evt.Type))
	}
}

// Run owns the client set. It must run in its own goroutine before the
// first client connects.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.log.Info("ws client connected", zap.String("user", client.Username))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.log.Info("ws client disconnected", zap.String("user", client.Username))
			}

		case evt := <-h.broadcast:
			payload, err := json.Marshal(evt)
			if err != nil {
				h.log.Error("failed to marshal event", zap.Error(err))
				continue
			}
			for client := range h.clients {
				select {
				case client.Send <- payload:
				default:
					// Slow consumer; drop it rather than stall the hub.
					delete(h.clients, client)
					close(client.Send)
				}
			}
		}
	}
}
