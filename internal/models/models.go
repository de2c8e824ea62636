package models

import "time"

// Identity is the externally-authenticated principal as delivered by the
// auth provider. It is never stored as-is; profile bootstrap turns it into
// a User.
type Identity struct {
	Subject     string `json:"sub"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	AvatarURL   string `json:"avatar_url"`
}

// User represents a durable application user. Handle is unique
// case-insensitively and immutable after creation.
type User struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url"`
	Handle      string    `json:"handle"`
	Summary     string    `json:"summary"`
	Following   []string  `json:"following"`
	PushToken   *string   `json:"push_token,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsFollowing reports whether the user follows targetID.
func (u *User) IsFollowing(targetID string) bool {
	for _, id := range u.Following {
		if id == targetID {
			return true
		}
	}
	return false
}

// PresenceState is the derived online/offline signal for a user.
type PresenceState string

const (
	PresenceOnline  PresenceState = "online"
	PresenceOffline PresenceState = "offline"
)

// PresenceRecord is the ephemeral presence read model entry for one user.
type PresenceRecord struct {
	UserID      string        `json:"user_id"`
	State       PresenceState `json:"state"`
	LastChanged time.Time     `json:"last_changed"`
}

// Message is a direct message between two users. ChatID is derived from the
// two participant ids so either side can compute it without coordination.
type Message struct {
	ID     string    `json:"id"`
	ChatID string    `json:"chat_id"`
	FromID string    `json:"from_id"`
	ToID   string    `json:"to_id"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}
