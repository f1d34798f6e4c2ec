package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/chatmatch/pairing"
	"github.com/Dosada05/chatmatch/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub           *pairing.Hub
	rosterService services.RosterService
	upgrader      websocket.Upgrader
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" or an empty
// list allows any origin.
func NewWebSocketHandler(hub *pairing.Hub, rs services.RosterService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		rosterService: rs,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeWs subscribes the client to EVENT_CREATED and ROSTER_DELETED messages of
// one roster. Clients connect to /ws/rosters/{rosterID}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	rosterID := chi.URLParam(r, "rosterID")
	if _, err := h.rosterService.GetRoster(r.Context(), rosterID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		slog.WarnContext(r.Context(), "websocket upgrade failed", slog.String("roster_id", rosterID), slog.Any("error", err))
		return
	}

	client := pairing.NewClient(h.hub, conn, pairing.RoomForRoster(rosterID))
	if !h.hub.Subscribe(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	slog.InfoContext(r.Context(), "websocket client subscribed", slog.String("room", client.Room))
}
