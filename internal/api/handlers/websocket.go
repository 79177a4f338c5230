package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/dom/todo-api/internal/api/respond"
	"github.com/dom/todo-api/internal/auth"
	"github.com/dom/todo-api/internal/domain"
	"github.com/dom/todo-api/internal/websocket"
	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub           *websocket.Hub
	authenticator *auth.Authenticator
	upgrader      ws.Upgrader
}

func NewWebSocketHandler(hub *websocket.Hub, authenticator *auth.Authenticator, allowedOrigins []string) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = true
	}

	return &WebSocketHandler{
		hub:           hub,
		authenticator: authenticator,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origins[origin]
			},
		},
	}
}

// Handle authenticates with the access token in the "token" query parameter,
// since browsers cannot set headers on WebSocket requests.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticator.AuthenticateToken(r.URL.Query().Get("token"), time.Now())
	if err != nil || identity.UserID == uuid.Nil {
		log.Printf("ERROR [handlers.WebSocket] authentication failed: %v", err)
		respond.Error(w, r, domain.ErrUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, identity.UserID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
