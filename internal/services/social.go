package services

import (
	"context"

	"wavelength-backend/internal/apperror"

	"github.com/rs/zerolog/log"
)

// SocialStore is the follow-edge storage consumed by the social service.
// Implemented by repository.UserRepository.
type SocialStore interface {
	Exists(ctx context.Context, id string) (bool, error)
	AddFollowing(ctx context.Context, userID, targetID string) error
	RemoveFollowing(ctx context.Context, userID, targetID string) error
}

// SocialService handles follow/unfollow mutations. Both operations are
// idempotent set-membership toggles on the actor's followed set; only the
// actor writes its own set, so no cross-actor contention exists.
type SocialService struct {
	store           SocialStore
	allowSelfFollow bool
}

// NewSocialService creates a new social service
func NewSocialService(store SocialStore, allowSelfFollow bool) *SocialService {
	return &SocialService{
		store:           store,
		allowSelfFollow: allowSelfFollow,
	}
}

// Follow adds targetID to the actor's followed set. No-op when the edge
// already exists. Self-follow is a configurable policy, rejected by
// default.
func (s *SocialService) Follow(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID && !s.allowSelfFollow {
		return apperror.ValidationFailed("target_id", "cannot follow yourself")
	}

	exists, err := s.store.Exists(ctx, targetID)
	if err != nil {
		return apperror.BackendUnavailable(err)
	}
	if !exists {
		return apperror.NotFound("user", targetID)
	}

	if err := s.store.AddFollowing(ctx, actorID, targetID); err != nil {
		return apperror.BackendUnavailable(err)
	}

	log.Info().Str("actor_id", actorID).Str("target_id", targetID).Msg("Follow edge added")
	return nil
}

// Unfollow removes targetID from the actor's followed set. No-op when the
// edge is absent.
func (s *SocialService) Unfollow(ctx context.Context, actorID, targetID string) error {
	if err := s.store.RemoveFollowing(ctx, actorID, targetID); err != nil {
		return apperror.BackendUnavailable(err)
	}

	log.Info().Str("actor_id", actorID).Str("target_id", targetID).Msg("Follow edge removed")
	return nil
}
