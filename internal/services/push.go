package services

import (
	"context"
	"fmt"

	"wavelength-backend/internal/config"
	"wavelength-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// PushTokenStore looks up the recipient's registered device token.
// Implemented by repository.UserRepository.
type PushTokenStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// PushService sends APNs alerts for messages that arrive while the
// recipient has no live session. Delivery is best-effort; failures are
// logged and never propagate to the sender.
type PushService struct {
	store  PushTokenStore
	client *apns2.Client
	topic  string
}

// NewPushService creates a new push service. Returns an error when the
// signing key cannot be loaded.
func NewPushService(store PushTokenStore, cfg config.APNsConfig) (*PushService, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &PushService{
		store:  store,
		client: client,
		topic:  cfg.Topic,
	}, nil
}

// RegisterToken stores or clears the device token for a user.
func (s *PushService) RegisterToken(ctx context.Context, userID string, pushToken *string) error {
	if err := s.store.UpdatePushToken(ctx, userID, pushToken); err != nil {
		return fmt.Errorf("failed to register push token: %w", err)
	}
	return nil
}

// NotifyMessage pushes a new-message alert to the recipient's device.
func (s *PushService) NotifyMessage(ctx context.Context, toID string, msg *models.Message) {
	user, err := s.store.GetByID(ctx, toID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", toID).Msg("Push skipped, recipient lookup failed")
		return
	}
	if user.PushToken == nil || *user.PushToken == "" {
		return
	}

	notification := &apns2.Notification{
		DeviceToken: *user.PushToken,
		Topic:       s.topic,
		Payload: payload.NewPayload().
			AlertTitle("New message").
			AlertBody(msg.Body).
			Sound("default"),
	}

	res, err := s.client.PushWithContext(ctx, notification)
	if err != nil {
		log.Warn().Err(err).Str("user_id", toID).Msg("Push delivery failed")
		return
	}
	if !res.Sent() {
		log.Warn().
			Str("user_id", toID).
			Int("status", res.StatusCode).
			Str("reason", res.Reason).
			Msg("Push rejected by APNs")
	}
}
