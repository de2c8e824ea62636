package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"wavelength-backend/internal/apperror"
	"wavelength-backend/internal/models"
	"wavelength-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// IdentityStore is the durable user storage consumed by the profile
// service. Implemented by repository.UserRepository.
type IdentityStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	CreateWithHandle(ctx context.Context, user *models.User) error
	List(ctx context.Context, filter string) ([]*models.User, error)
}

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// ProfileService turns a freshly authenticated identity into a durable
// application user with a globally-unique handle.
type ProfileService struct {
	store     IdentityStore
	generator SummaryGenerator
	now       func() time.Time
}

// NewProfileService creates a new profile service
func NewProfileService(store IdentityStore, generator SummaryGenerator) *ProfileService {
	return &ProfileService{
		store:     store,
		generator: generator,
		now:       time.Now,
	}
}

// Exists reports whether a profile already exists for the identity.
// Callers must check this before Bootstrap; Bootstrap assumes
// non-existence and rejects duplicates only through the handle
// reservation conflict.
func (s *ProfileService) Exists(ctx context.Context, userID string) (bool, error) {
	exists, err := s.store.Exists(ctx, userID)
	if err != nil {
		return false, apperror.BackendUnavailable(err)
	}
	return exists, nil
}

// Load retrieves an existing profile.
func (s *ProfileService) Load(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, apperror.BackendUnavailable(err)
	}
	return user, nil
}

// List returns all users, optionally filtered by a case-insensitive
// substring match on handle or display name.
func (s *ProfileService) List(ctx context.Context, filter string) ([]*models.User, error) {
	users, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, apperror.BackendUnavailable(err)
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// Bootstrap creates the application user and its handle reservation.
//
// The identity must carry a display name, email and avatar URL; incomplete
// identities fail before any store access. The user record and the
// lowercased handle reservation are written in one transaction, so a
// conflicting handle aborts the whole operation with no partial state.
// The display handle keeps the caller's chosen casing.
func (s *ProfileService) Bootstrap(ctx context.Context, identity *models.Identity, requestedHandle string) (*models.User, error) {
	switch {
	case identity.DisplayName == "":
		return nil, apperror.IncompleteIdentity("display_name")
	case identity.Email == "":
		return nil, apperror.IncompleteIdentity("email")
	case identity.AvatarURL == "":
		return nil, apperror.IncompleteIdentity("avatar_url")
	}

	handle := strings.TrimSpace(requestedHandle)
	if !handlePattern.MatchString(handle) {
		return nil, apperror.ValidationFailed("handle", "handle must be 3-20 letters, digits or underscores")
	}

	summary := s.generateSummary(ctx, identity.DisplayName)

	user := &models.User{
		ID:          identity.Subject,
		DisplayName: identity.DisplayName,
		Email:       identity.Email,
		AvatarURL:   identity.AvatarURL,
		Handle:      handle,
		Summary:     summary,
		Following:   []string{},
		CreatedAt:   s.now(),
	}

	if err := s.store.CreateWithHandle(ctx, user); err != nil {
		if errors.Is(err, repository.ErrHandleConflict) {
			return nil, apperror.HandleTaken(handle)
		}
		return nil, apperror.BackendUnavailable(err)
	}

	log.Info().
		Str("user_id", user.ID).
		Str("handle", user.Handle).
		Msg("Profile bootstrapped")

	return user, nil
}

// generateSummary derives the generator input from the display name and
// falls back to a fixed summary when the generator is unavailable or
// returns nothing. The failure is logged, never surfaced.
func (s *ProfileService) generateSummary(ctx context.Context, displayName string) string {
	firstName, lastInitial := splitDisplayName(displayName)

	summary, err := s.generator.Generate(ctx, firstName, strings.ToUpper(lastInitial))
	if err != nil || summary == "" {
		log.Warn().Err(err).Str("first_name", firstName).Msg("Summary generator unavailable, using fallback")
		return FallbackSummary
	}
	return summary
}

// splitDisplayName decomposes a display name into the generator's
// (firstName, lastInitial) input. The first whitespace token is the first
// name; with multiple tokens the last initial is the first character of
// the final token, with a single token it is that token's second
// character if present. Best-effort cosmetic input only.
func splitDisplayName(displayName string) (firstName, lastInitial string) {
	tokens := strings.Fields(displayName)
	if len(tokens) == 0 {
		return "", ""
	}

	firstName = tokens[0]
	if len(tokens) > 1 {
		last := []rune(tokens[len(tokens)-1])
		lastInitial = string(last[0])
	} else {
		runes := []rune(tokens[0])
		if len(runes) > 1 {
			lastInitial = string(runes[1])
		}
	}
	return firstName, lastInitial
}
