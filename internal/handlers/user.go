package handlers

import (
	"encoding/json"
	"net/http"

	"wavelength-backend/internal/middleware"
	"wavelength-backend/internal/models"
	"wavelength-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles sign-in, profile bootstrap and user browsing.
type UserHandler struct {
	profileService *services.ProfileService
	authService    *services.AuthService
	presenceHub    *services.PresenceHub
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	profileService *services.ProfileService,
	authService *services.AuthService,
	presenceHub *services.PresenceHub,
) *UserHandler {
	return &UserHandler{
		profileService: profileService,
		authService:    authService,
		presenceHub:    presenceHub,
	}
}

// SessionRequest carries the provider-signed identity token.
type SessionRequest struct {
	IdentityToken string `json:"identity_token"`
}

// SessionResponse is returned on sign-in. NewUser signals that the
// identity has no profile yet and must bootstrap one before it gets a
// session token.
type SessionResponse struct {
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user,omitempty"`
	NewUser bool         `json:"new_user"`
}

// CreateSession handles POST /api/v1/session
func (h *UserHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	identity, err := h.authService.VerifyIdentityToken(req.IdentityToken)
	if err != nil {
		respondError(w, "Invalid identity token", http.StatusUnauthorized)
		return
	}

	exists, err := h.profileService.Exists(ctx, identity.Subject)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.Subject).Msg("Failed to check profile existence")
		respondAppError(w, err)
		return
	}

	if !exists {
		respondJSON(w, http.StatusOK, SessionResponse{NewUser: true})
		return
	}

	user, err := h.profileService.Load(ctx, identity.Subject)
	if err != nil {
		log.Error().Err(err).Str("user_id", identity.Subject).Msg("Failed to load profile")
		respondAppError(w, err)
		return
	}

	token, err := h.authService.GenerateSessionToken(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate session token")
		respondError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("Session created")
	respondJSON(w, http.StatusOK, SessionResponse{Token: token, User: user})
}

// BootstrapRequest carries the identity token and the chosen handle.
type BootstrapRequest struct {
	IdentityToken string `json:"identity_token"`
	Handle        string `json:"handle"`
}

// BootstrapProfile handles POST /api/v1/profile. The identity token (not
// a session token) authenticates the request because the profile does not
// exist yet.
func (h *UserHandler) BootstrapProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	identity, err := h.authService.VerifyIdentityToken(req.IdentityToken)
	if err != nil {
		respondError(w, "Invalid identity token", http.StatusUnauthorized)
		return
	}

	exists, err := h.profileService.Exists(ctx, identity.Subject)
	if err != nil {
		respondAppError(w, err)
		return
	}
	if exists {
		respondError(w, "Profile already exists", http.StatusConflict)
		return
	}

	user, err := h.profileService.Bootstrap(ctx, identity, req.Handle)
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", identity.Subject).
			Str("handle", req.Handle).
			Msg("Failed to bootstrap profile")
		respondAppError(w, err)
		return
	}

	token, err := h.authService.GenerateSessionToken(user.ID)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate session token")
		respondError(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, SessionResponse{Token: token, User: user})
}

// GetProfile handles GET /api/v1/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	user, err := h.profileService.Load(ctx, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UserCard is the public-facing shape of another user: no email or push
// token, plus the live online flag.
type UserCard struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	AvatarURL   string `json:"avatar_url"`
	Summary     string `json:"summary"`
	Online      bool   `json:"online"`
	Followed    bool   `json:"followed"`
}

// ListUsers handles GET /api/v1/users with optional ?q= filter
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	users, err := h.profileService.List(ctx, r.URL.Query().Get("q"))
	if err != nil {
		respondAppError(w, err)
		return
	}

	self, err := h.profileService.Load(ctx, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	cards := make([]UserCard, 0, len(users))
	for _, u := range users {
		if u.ID == userID {
			continue
		}
		cards = append(cards, h.card(u, self))
	}
	respondJSON(w, http.StatusOK, cards)
}

// GetUser handles GET /api/v1/users/{user_id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	targetID := chi.URLParam(r, "user_id")

	target, err := h.profileService.Load(ctx, targetID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	self, err := h.profileService.Load(ctx, userID)
	if err != nil {
		respondAppError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.card(target, self))
}

func (h *UserHandler) card(u, viewer *models.User) UserCard {
	return UserCard{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Handle:      u.Handle,
		AvatarURL:   u.AvatarURL,
		Summary:     u.Summary,
		Online:      h.presenceHub.Online(u.ID),
		Followed:    viewer.IsFollowing(u.ID),
	}
}
