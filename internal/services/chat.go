package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"wavelength-backend/internal/apperror"
	"wavelength-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxMessageLength = 2000

// MessageStore is the message persistence consumed by the chat service.
// Implemented by repository.MessageRepository.
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByChatID(ctx context.Context, chatID string, limit int) ([]*models.Message, error)
}

// MessageDeliverer pushes a message event to a user's live sessions.
// Implemented by ClientHub.
type MessageDeliverer interface {
	SendToUser(userID string, event Event) error
}

// OfflineNotifier notifies a user who has no live session about a new
// message. Implemented by PushService.
type OfflineNotifier interface {
	NotifyMessage(ctx context.Context, toID string, msg *models.Message)
}

// ChatID derives the channel identifier for two participants: their ids
// sorted lexicographically, joined with "-". Either participant computes
// the same id without coordination.
func ChatID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "-")
}

// ChatService persists direct messages and fans them out to both
// participants' live sessions, with a best-effort push for offline
// recipients.
type ChatService struct {
	messages  MessageStore
	deliverer MessageDeliverer
	presence  *PresenceHub
	notifier  OfflineNotifier
	now       func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(messages MessageStore, deliverer MessageDeliverer, presence *PresenceHub, notifier OfflineNotifier) *ChatService {
	return &ChatService{
		messages:  messages,
		deliverer: deliverer,
		presence:  presence,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Send persists a message and delivers it to both participants.
func (s *ChatService) Send(ctx context.Context, fromID, toID, body string) (*models.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.ValidationFailed("body", "message body is required")
	}
	if len(body) > maxMessageLength {
		return nil, apperror.ValidationFailed("body", "message body is too long")
	}
	if fromID == toID {
		return nil, apperror.ValidationFailed("to_id", "cannot message yourself")
	}

	msg := &models.Message{
		ID:     uuid.New().String(),
		ChatID: ChatID(fromID, toID),
		FromID: fromID,
		ToID:   toID,
		Body:   body,
		SentAt: s.now(),
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperror.BackendUnavailable(err)
	}

	event := Event{Type: "message", Message: msg}
	if err := s.deliverer.SendToUser(fromID, event); err != nil {
		log.Debug().Str("user_id", fromID).Msg("Sender has no other live session")
	}
	if err := s.deliverer.SendToUser(toID, event); err != nil {
		log.Debug().Str("user_id", toID).Msg("Recipient has no live session")
	}

	// Recipient unreachable on any session: fall back to a push alert.
	if s.notifier != nil && !s.presence.Online(toID) {
		s.notifier.NotifyMessage(ctx, toID, msg)
	}

	log.Info().
		Str("chat_id", msg.ChatID).
		Str("from_id", fromID).
		Str("to_id", toID).
		Msg("Message sent")

	return msg, nil
}

// History returns the messages of the chat between userID and peerID,
// oldest first.
func (s *ChatService) History(ctx context.Context, userID, peerID string, limit int) ([]*models.Message, error) {
	messages, err := s.messages.ListByChatID(ctx, ChatID(userID, peerID), limit)
	if err != nil {
		return nil, apperror.BackendUnavailable(err)
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	return messages, nil
}
