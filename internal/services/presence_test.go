package services

import (
	"testing"
	"time"

	"wavelength-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(ch <-chan models.PresenceRecord, n int) []models.PresenceRecord {
	records := make([]models.PresenceRecord, 0, n)
	timeout := time.After(time.Second)
	for len(records) < n {
		select {
		case rec := <-ch:
			records = append(records, rec)
		case <-timeout:
			return records
		}
	}
	return records
}

func TestPresence_ConnectDisconnectSequence(t *testing.T) {
	hub := NewPresenceHub()

	feed, cancel := hub.Subscribe("u1")
	defer cancel()

	sessionID := hub.Connect("u1")
	hub.Disconnect("u1", sessionID)

	records := collect(feed, 3)
	require.Len(t, records, 3)

	// Initial state on subscribe, then online, then offline.
	assert.Equal(t, models.PresenceOffline, records[0].State)
	assert.Equal(t, models.PresenceOnline, records[1].State)
	assert.Equal(t, models.PresenceOffline, records[2].State)

	assert.False(t, records[2].LastChanged.Before(records[1].LastChanged),
		"offline timestamp must not precede the online timestamp")
}

func TestPresence_SubscribeDeliversCurrentStateImmediately(t *testing.T) {
	hub := NewPresenceHub()
	hub.Connect("u1")

	feed, cancel := hub.Subscribe("u1")
	defer cancel()

	records := collect(feed, 1)
	require.Len(t, records, 1)
	assert.Equal(t, models.PresenceOnline, records[0].State)
	assert.Equal(t, "u1", records[0].UserID)
}

func TestPresence_MultipleSessionsAreRefCounted(t *testing.T) {
	hub := NewPresenceHub()

	s1 := hub.Connect("u1")
	s2 := hub.Connect("u1")
	assert.True(t, hub.Online("u1"))

	// Dropping one of two sessions keeps the user online.
	hub.Disconnect("u1", s1)
	assert.True(t, hub.Online("u1"))

	hub.Disconnect("u1", s2)
	assert.False(t, hub.Online("u1"))
}

func TestPresence_SecondSessionDoesNotFlap(t *testing.T) {
	hub := NewPresenceHub()

	feed, cancel := hub.Subscribe("u1")
	defer cancel()

	s1 := hub.Connect("u1")
	s2 := hub.Connect("u1")
	hub.Disconnect("u1", s1)
	hub.Disconnect("u1", s2)

	records := collect(feed, 3)
	require.Len(t, records, 3)
	// Exactly one online and one offline transition regardless of the
	// second session joining and leaving in between.
	assert.Equal(t, models.PresenceOffline, records[0].State)
	assert.Equal(t, models.PresenceOnline, records[1].State)
	assert.Equal(t, models.PresenceOffline, records[2].State)

	select {
	case rec := <-feed:
		t.Fatalf("unexpected extra presence record: %+v", rec)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPresence_DisconnectIsIdempotent(t *testing.T) {
	hub := NewPresenceHub()

	sessionID := hub.Connect("u1")
	hub.Disconnect("u1", sessionID)
	hub.Disconnect("u1", sessionID)
	hub.Disconnect("u1", "never-existed")

	assert.False(t, hub.Online("u1"))
}

func TestPresence_CancelStopsDelivery(t *testing.T) {
	hub := NewPresenceHub()

	feed, cancel := hub.Subscribe("u1")
	records := collect(feed, 1)
	require.Len(t, records, 1)

	cancel()
	hub.Connect("u1")

	// The channel is closed after cancel; no further records arrive.
	rec, open := <-feed
	assert.False(t, open, "expected closed feed, got %+v", rec)
}

func TestPresence_CancelIsIdempotent(t *testing.T) {
	hub := NewPresenceHub()

	_, cancel := hub.Subscribe("u1")
	cancel()
	cancel()
}

func TestPresence_StateForUnknownUserIsOffline(t *testing.T) {
	hub := NewPresenceHub()

	record := hub.State("ghost")
	assert.Equal(t, models.PresenceOffline, record.State)
	assert.Equal(t, "ghost", record.UserID)
	assert.True(t, record.LastChanged.IsZero())
}

func TestPresence_IndependentUsers(t *testing.T) {
	hub := NewPresenceHub()

	feedA, cancelA := hub.Subscribe("a")
	defer cancelA()

	hub.Connect("b")

	records := collect(feedA, 1)
	require.Len(t, records, 1)
	assert.Equal(t, models.PresenceOffline, records[0].State, "b connecting must not affect a's feed")
	assert.False(t, hub.Online("a"))
	assert.True(t, hub.Online("b"))
}
