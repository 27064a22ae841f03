package domain

import "time"

// UserProfile is the display data used to hydrate leaderboard rows.
// Accounts themselves are managed by the user subsystem; this service
// only ever reads the profile fields.
type UserProfile struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	AvatarURL   *string    `json:"avatar_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	DeletedAt   *time.Time `json:"-"`
}
