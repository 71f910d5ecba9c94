package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"project-tracker/backend/internal/auth"
	"project-tracker/backend/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventsHandler upgrades clients onto the project event feed. Browsers
// cannot set an Authorization header on a websocket handshake, so the
// token travels as a query parameter.
type EventsHandler struct {
	hub    *ws.Hub
	secret string
	log    *zap.Logger
}

func NewEventsHandler(hub *ws.Hub, secret string, log *zap.Logger) *EventsHandler {
	return &EventsHandler{hub: hub, secret: secret, log: log}
}

func (h *EventsHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("auth_token")
	if tokenString == "" {
		http.Error(w, "Missing auth_token query parameter", http.StatusUnauthorized)
		return
	}
	claims, err := auth.ValidateJWT(h.secret, tokenString)
	if err != nil {
		http.Error(w, "Invalid auth token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("failed to upgrade websocket connection", zap.Error(err))
		return
	}

	client := &ws.Client{
		Hub:      h.hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		UserID:   claims.UserID,
		Username: claims.Username,
	}
	client.Register()

	go client.WritePump()
	go client.ReadPump()
}
