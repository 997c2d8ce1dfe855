package user

import "time"

// User is a chat user known to the bot. Users are upserted on every
// interaction; there is no deletion.
type User struct {
	ID           int64     `json:"id" redis:"id"`
	Username     string    `json:"username" redis:"username"`
	FirstName    string    `json:"first_name" redis:"first_name"`
	LastName     string    `json:"last_name,omitempty" redis:"last_name"`
	CreatedAt    time.Time `json:"created_at" redis:"created_at"`
	LastActivity time.Time `json:"last_activity" redis:"last_activity"`
}

// DisplayName returns the best human-readable name for the user.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "Unknown"
}
