package handlers

import (
	"encoding/json"
	"net/http"

	"wavelength-backend/internal/middleware"
	"wavelength-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// AvatarHandler handles avatar uploads via pre-signed S3 URLs.
type AvatarHandler struct {
	avatarService *services.AvatarService
}

// NewAvatarHandler creates a new avatar handler
func NewAvatarHandler(avatarService *services.AvatarService) *AvatarHandler {
	return &AvatarHandler{
		avatarService: avatarService,
	}
}

// UploadURLRequest asks for a pre-signed upload slot.
type UploadURLRequest struct {
	ContentType string `json:"content_type"`
}

// CreateUploadURL handles POST /api/v1/avatar/upload-url
func (h *AvatarHandler) CreateUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UploadURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ticket, err := h.avatarService.CreateUploadURL(ctx, userID, req.ContentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create avatar upload URL")
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ticket)
}

// ConfirmUploadRequest records the uploaded avatar.
type ConfirmUploadRequest struct {
	AvatarURL string `json:"avatar_url"`
}

// ConfirmUpload handles PUT /api/v1/avatar
func (h *AvatarHandler) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req ConfirmUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.avatarService.ConfirmUpload(ctx, userID, req.AvatarURL); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to confirm avatar upload")
		respondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
