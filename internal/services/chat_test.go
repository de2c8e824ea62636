package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"wavelength-backend/internal/apperror"
	"wavelength-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessageStore struct {
	messages []*models.Message
	failWith error
}

func (f *fakeMessageStore) Create(ctx context.Context, msg *models.Message) error {
	if f.failWith != nil {
		return f.failWith
	}
	copied := *msg
	f.messages = append(f.messages, &copied)
	return nil
}

func (f *fakeMessageStore) ListByChatID(ctx context.Context, chatID string, limit int) ([]*models.Message, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []*models.Message
	for _, m := range f.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeDeliverer records fanned-out events per user.
type fakeDeliverer struct {
	events map[string][]Event
}

func newFakeDeliverer() *fakeDeliverer {
	return &fakeDeliverer{events: make(map[string][]Event)}
}

func (f *fakeDeliverer) SendToUser(userID string, event Event) error {
	f.events[userID] = append(f.events[userID], event)
	return nil
}

type fakeNotifier struct {
	notified []string
}

func (f *fakeNotifier) NotifyMessage(ctx context.Context, toID string, msg *models.Message) {
	f.notified = append(f.notified, toID)
}

func TestChatID_Deterministic(t *testing.T) {
	assert.Equal(t, ChatID("alice", "bob"), ChatID("bob", "alice"))
	assert.Equal(t, "alice-bob", ChatID("bob", "alice"))
	assert.Equal(t, "a-b", ChatID("a", "b"))
}

func TestSend_PersistsAndFansOut(t *testing.T) {
	store := &fakeMessageStore{}
	deliverer := newFakeDeliverer()
	hub := NewPresenceHub()
	hub.Connect("bob")
	svc := NewChatService(store, deliverer, hub, nil)

	msg, err := svc.Send(context.Background(), "alice", "bob", "hi there")
	require.NoError(t, err)

	assert.Equal(t, "alice-bob", msg.ChatID)
	assert.Equal(t, "hi there", msg.Body)
	assert.NotEmpty(t, msg.ID)
	require.Len(t, store.messages, 1)

	require.Len(t, deliverer.events["alice"], 1)
	require.Len(t, deliverer.events["bob"], 1)
	assert.Equal(t, "message", deliverer.events["bob"][0].Type)
	assert.Equal(t, msg.ID, deliverer.events["bob"][0].Message.ID)
}

func TestSend_EmptyBodyRejected(t *testing.T) {
	svc := NewChatService(&fakeMessageStore{}, newFakeDeliverer(), NewPresenceHub(), nil)

	for _, body := range []string{"", "   ", "\n\t"} {
		_, err := svc.Send(context.Background(), "alice", "bob", body)
		assert.ErrorIs(t, err, apperror.ErrValidation, "body %q", body)
	}
}

func TestSend_OversizedBodyRejected(t *testing.T) {
	svc := NewChatService(&fakeMessageStore{}, newFakeDeliverer(), NewPresenceHub(), nil)

	_, err := svc.Send(context.Background(), "alice", "bob", strings.Repeat("x", maxMessageLength+1))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSend_SelfMessageRejected(t *testing.T) {
	svc := NewChatService(&fakeMessageStore{}, newFakeDeliverer(), NewPresenceHub(), nil)

	_, err := svc.Send(context.Background(), "alice", "alice", "note to self")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestSend_StoreFailureIsBackendUnavailable(t *testing.T) {
	store := &fakeMessageStore{failWith: errors.New("connection refused")}
	deliverer := newFakeDeliverer()
	svc := NewChatService(store, deliverer, NewPresenceHub(), nil)

	_, err := svc.Send(context.Background(), "alice", "bob", "hi")
	assert.ErrorIs(t, err, apperror.ErrBackendUnavailable)
	assert.Empty(t, deliverer.events, "no fanout on persistence failure")
}

func TestSend_OfflineRecipientGetsPush(t *testing.T) {
	store := &fakeMessageStore{}
	notifier := &fakeNotifier{}
	hub := NewPresenceHub()
	svc := NewChatService(store, newFakeDeliverer(), hub, notifier)

	_, err := svc.Send(context.Background(), "alice", "bob", "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, notifier.notified)
}

func TestSend_OnlineRecipientGetsNoPush(t *testing.T) {
	store := &fakeMessageStore{}
	notifier := &fakeNotifier{}
	hub := NewPresenceHub()
	hub.Connect("bob")
	svc := NewChatService(store, newFakeDeliverer(), hub, notifier)

	_, err := svc.Send(context.Background(), "alice", "bob", "hi")
	require.NoError(t, err)
	assert.Empty(t, notifier.notified)
}

func TestHistory_ReturnsChatMessagesOldestFirst(t *testing.T) {
	store := &fakeMessageStore{}
	svc := NewChatService(store, newFakeDeliverer(), NewPresenceHub(), nil)

	base := time.Now()
	svc.now = func() time.Time { return base }
	for i := 0; i < 3; i++ {
		tick := base.Add(time.Duration(i) * time.Second)
		svc.now = func() time.Time { return tick }
		_, err := svc.Send(context.Background(), "alice", "bob", fmt.Sprintf("msg %d", i))
		require.NoError(t, err)
	}
	_, err := svc.Send(context.Background(), "alice", "carol", "other chat")
	require.NoError(t, err)

	messages, err := svc.History(context.Background(), "bob", "alice", 0)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "msg 0", messages[0].Body)
	assert.Equal(t, "msg 2", messages[2].Body)
}

func TestHistory_EmptyChatIsEmptySlice(t *testing.T) {
	svc := NewChatService(&fakeMessageStore{}, newFakeDeliverer(), NewPresenceHub(), nil)

	messages, err := svc.History(context.Background(), "alice", "bob", 0)
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}
