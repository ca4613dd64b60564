package models

import "time"

// User is a registered marketplace user.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	AvatarURL    string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// UserRef is the participant shape embedded in resolved views.
type UserRef struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Ref derives the boundary representation of the user.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}
