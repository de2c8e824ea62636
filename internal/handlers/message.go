package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"wavelength-backend/internal/middleware"
	"wavelength-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// MessageHandler handles direct message history and push token
// registration.
type MessageHandler struct {
	chatService *services.ChatService
	pushService *services.PushService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(chatService *services.ChatService, pushService *services.PushService) *MessageHandler {
	return &MessageHandler{
		chatService: chatService,
		pushService: pushService,
	}
}

// GetHistory handles GET /api/v1/chats/{peer_id}/messages
func (h *MessageHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	peerID := chi.URLParam(r, "peer_id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	messages, err := h.chatService.History(ctx, userID, peerID, limit)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("peer_id", peerID).
			Msg("Failed to load chat history")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, messages)
}

// PushTokenRequest registers or clears the caller's device token.
type PushTokenRequest struct {
	PushToken *string `json:"push_token"`
}

// RegisterPushToken handles POST /api/v1/push-token
func (h *MessageHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if h.pushService == nil {
		respondError(w, "Push notifications are not enabled", http.StatusNotImplemented)
		return
	}

	var req PushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.pushService.RegisterToken(ctx, userID, req.PushToken); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register push token")
		respondError(w, "Failed to register push token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
