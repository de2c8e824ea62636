package services

import (
	"sync"
	"time"

	"wavelength-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PresenceHub tracks liveness per user as a reference-counted set of live
// session ids: a user is online iff at least one session is connected.
// Each session's disconnect removes only its own id, so concurrent
// sessions on multiple devices never flap the derived state.
//
// The hub is also the presence read model: subscribers get the current
// record immediately and every subsequent transition until they cancel.
type PresenceHub struct {
	mu       sync.RWMutex
	sessions map[string]map[string]struct{}
	subs     map[string]map[uint64]chan models.PresenceRecord
	last     map[string]models.PresenceRecord
	nextSub  uint64
	now      func() time.Time
}

// NewPresenceHub creates a new presence hub
func NewPresenceHub() *PresenceHub {
	return &PresenceHub{
		sessions: make(map[string]map[string]struct{}),
		subs:     make(map[string]map[uint64]chan models.PresenceRecord),
		last:     make(map[string]models.PresenceRecord),
		now:      time.Now,
	}
}

// Connect registers a live session for the user and returns its session
// id. The first session for a user transitions the user to online.
func (h *PresenceHub) Connect(userID string) string {
	sessionID := uuid.New().String()

	h.mu.Lock()
	set, ok := h.sessions[userID]
	if !ok {
		set = make(map[string]struct{})
		h.sessions[userID] = set
	}
	set[sessionID] = struct{}{}
	var record *models.PresenceRecord
	if len(set) == 1 {
		record = h.transitionLocked(userID, models.PresenceOnline)
	}
	h.mu.Unlock()

	if record != nil {
		log.Info().Str("user_id", userID).Msg("User online")
	}
	return sessionID
}

// Disconnect removes a single session. The server observes connection
// loss, so this runs both on clean sign-out and when the socket drops.
// The last session for a user transitions the user to offline.
func (h *PresenceHub) Disconnect(userID, sessionID string) {
	h.mu.Lock()
	set, ok := h.sessions[userID]
	if ok {
		delete(set, sessionID)
	}
	var record *models.PresenceRecord
	if ok && len(set) == 0 {
		delete(h.sessions, userID)
		record = h.transitionLocked(userID, models.PresenceOffline)
	}
	h.mu.Unlock()

	if record != nil {
		log.Info().Str("user_id", userID).Msg("User offline")
	}
}

// Online reports whether the user has at least one live session.
func (h *PresenceHub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

// State returns the current presence record for the user. Users never
// seen by the hub are offline.
func (h *PresenceHub) State(userID string) models.PresenceRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stateLocked(userID)
}

// Subscribe returns a feed of presence records for the user: the current
// state immediately, then every transition. The returned cancel func
// tears down the server-side listener; leaking it leaks the feed.
func (h *PresenceHub) Subscribe(userID string) (<-chan models.PresenceRecord, func()) {
	ch := make(chan models.PresenceRecord, 16)

	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[uint64]chan models.PresenceRecord)
	}
	h.subs[userID][id] = ch
	ch <- h.stateLocked(userID)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[userID]; ok {
			if _, ok := set[id]; ok {
				delete(set, id)
				close(ch)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// transitionLocked records a state change and fans it out. Caller holds
// the write lock.
func (h *PresenceHub) transitionLocked(userID string, state models.PresenceState) *models.PresenceRecord {
	record := models.PresenceRecord{
		UserID:      userID,
		State:       state,
		LastChanged: h.now(),
	}
	h.last[userID] = record

	for _, ch := range h.subs[userID] {
		select {
		case ch <- record:
		default:
			log.Warn().Str("user_id", userID).Msg("Presence subscriber too slow, dropping update")
		}
	}
	return &record
}

// stateLocked returns the last known record, or a zero-timestamp offline
// record for users the hub has never seen. Caller holds at least the
// read lock.
func (h *PresenceHub) stateLocked(userID string) models.PresenceRecord {
	if record, ok := h.last[userID]; ok {
		return record
	}
	return models.PresenceRecord{UserID: userID, State: models.PresenceOffline}
}
