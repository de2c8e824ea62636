package services

import (
	"fmt"
	"sync"

	"wavelength-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event is a server-to-client WebSocket frame.
type Event struct {
	Type     string                 `json:"type"`
	Presence *models.PresenceRecord `json:"presence,omitempty"`
	Message  *models.Message        `json:"message,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// client wraps a websocket connection with a write lock; gorilla conns
// allow only one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(event)
}

// ClientHub manages live WebSocket connections, keyed by user id and
// session id so one user can hold several connections at once.
type ClientHub struct {
	mu      sync.RWMutex
	clients map[string]map[string]*client
}

// NewClientHub creates a new client hub
func NewClientHub() *ClientHub {
	return &ClientHub{
		clients: make(map[string]map[string]*client),
	}
}

// Register registers a connection for a user session
func (h *ClientHub) Register(userID, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[string]*client)
	}
	h.clients[userID][sessionID] = &client{conn: conn}

	log.Info().Str("user_id", userID).Str("session_id", sessionID).Msg("WebSocket connection registered")
}

// Unregister removes a connection for a user session
func (h *ClientHub) Unregister(userID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.clients[userID]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(h.clients, userID)
		}
		log.Info().Str("user_id", userID).Str("session_id", sessionID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser delivers an event to every live session of a user. Returns
// an error when the user has no live session.
func (h *ClientHub) SendToUser(userID string, event Event) error {
	h.mu.RLock()
	set := h.clients[userID]
	targets := make([]*client, 0, len(set))
	for _, c := range set {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return fmt.Errorf("user %s is not connected", userID)
	}

	for _, c := range targets {
		if err := c.send(event); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to write event")
		}
	}
	return nil
}

// SendToSession delivers an event to one specific session of a user.
func (h *ClientHub) SendToSession(userID, sessionID string, event Event) error {
	h.mu.RLock()
	c := h.clients[userID][sessionID]
	h.mu.RUnlock()

	if c == nil {
		return fmt.Errorf("session %s of user %s is not connected", sessionID, userID)
	}
	return c.send(event)
}
