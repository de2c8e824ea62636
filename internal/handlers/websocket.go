package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"wavelength-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // client origins are not pinned yet
	},
}

// WebSocketHandler owns the live session: it registers the connection as
// a presence session, relays direct messages, and serves presence watch
// subscriptions over one socket.
type WebSocketHandler struct {
	clients     *services.ClientHub
	presenceHub *services.PresenceHub
	authService *services.AuthService
	chatService *services.ChatService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	clients *services.ClientHub,
	presenceHub *services.PresenceHub,
	authService *services.AuthService,
	chatService *services.ChatService,
) *WebSocketHandler {
	return &WebSocketHandler{
		clients:     clients,
		presenceHub: presenceHub,
		authService: authService,
		chatService: chatService,
	}
}

// clientFrame is a client-to-server WebSocket message.
type clientFrame struct {
	Type   string `json:"type"`
	UserID string `json:"user_id,omitempty"` // watch_presence / unwatch_presence target
	ToID   string `json:"to_id,omitempty"`   // send_message recipient
	Body   string `json:"body,omitempty"`    // send_message text
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	userID, err := h.authService.ValidateSessionToken(token)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	// The read loop ending is the server-observed disconnect signal: it
	// fires on clean sign-out, tab close, crash and network loss alike.
	sessionID := h.presenceHub.Connect(userID)
	h.clients.Register(userID, sessionID, conn)
	defer func() {
		h.clients.Unregister(userID, sessionID)
		h.presenceHub.Disconnect(userID, sessionID)
	}()

	// Live presence watches held by this connection. Every watch must be
	// cancelled on exit or the hub keeps a dead listener.
	watches := make(map[string]func())
	defer func() {
		for _, cancel := range watches {
			cancel()
		}
	}()

	log.Info().Str("user_id", userID).Str("session_id", sessionID).Msg("WebSocket connection established")

	ctx := r.Context()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}

		var frame clientFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(userID, sessionID, "Invalid message format")
			continue
		}

		if done := h.handleFrame(ctx, userID, sessionID, frame, watches); done {
			return
		}
	}
}

// handleFrame processes one client frame. Returns true when the session
// should end.
func (h *WebSocketHandler) handleFrame(ctx context.Context, userID, sessionID string, frame clientFrame, watches map[string]func()) bool {
	switch frame.Type {
	case "watch_presence":
		h.handleWatchPresence(userID, sessionID, frame.UserID, watches)
	case "unwatch_presence":
		if cancel, ok := watches[frame.UserID]; ok {
			cancel()
			delete(watches, frame.UserID)
		}
	case "send_message":
		if _, err := h.chatService.Send(ctx, userID, frame.ToID, frame.Body); err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("to_id", frame.ToID).Msg("Failed to send message")
			h.sendError(userID, sessionID, err.Error())
		}
	case "sign_out":
		// Proactive offline write, ahead of the socket actually closing.
		h.presenceHub.Disconnect(userID, sessionID)
		return true
	default:
		h.sendError(userID, sessionID, "Unknown message type")
	}
	return false
}

// handleWatchPresence subscribes this session to a user's presence feed.
// The feed delivers the current state immediately, then every change.
func (h *WebSocketHandler) handleWatchPresence(userID, sessionID, targetID string, watches map[string]func()) {
	if targetID == "" {
		h.sendError(userID, sessionID, "user_id is required")
		return
	}
	if _, ok := watches[targetID]; ok {
		return
	}

	feed, cancel := h.presenceHub.Subscribe(targetID)
	watches[targetID] = cancel

	go func() {
		for record := range feed {
			rec := record
			event := services.Event{Type: "presence", Presence: &rec}
			if err := h.clients.SendToSession(userID, sessionID, event); err != nil {
				return
			}
		}
	}()
}

// sendError sends an error event to one session
func (h *WebSocketHandler) sendError(userID, sessionID, message string) {
	event := services.Event{Type: "error", Error: message}
	if err := h.clients.SendToSession(userID, sessionID, event); err != nil {
		log.Debug().Str("user_id", userID).Msg("Failed to deliver error event")
	}
}
