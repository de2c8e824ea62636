package handlers

import (
	"net/http"

	"wavelength-backend/internal/middleware"
	"wavelength-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// SocialHandler handles follow graph mutations.
type SocialHandler struct {
	socialService *services.SocialService
}

// NewSocialHandler creates a new social handler
func NewSocialHandler(socialService *services.SocialService) *SocialHandler {
	return &SocialHandler{
		socialService: socialService,
	}
}

// Follow handles POST /api/v1/users/{user_id}/follow
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetUserID(ctx)
	targetID := chi.URLParam(r, "user_id")

	if err := h.socialService.Follow(ctx, actorID, targetID); err != nil {
		log.Error().
			Err(err).
			Str("actor_id", actorID).
			Str("target_id", targetID).
			Msg("Failed to follow user")
		respondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Unfollow handles DELETE /api/v1/users/{user_id}/follow
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actorID := middleware.GetUserID(ctx)
	targetID := chi.URLParam(r, "user_id")

	if err := h.socialService.Unfollow(ctx, actorID, targetID); err != nil {
		log.Error().
			Err(err).
			Str("actor_id", actorID).
			Str("target_id", targetID).
			Msg("Failed to unfollow user")
		respondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
