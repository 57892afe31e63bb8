package models

import "time"

// User is a staff account that can sign in to the dashboard. Church members
// are Persons and never sign in.
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	IsAdmin       bool      `json:"is_admin"`
	PasswordHash  string    `json:"-"`
	OAuthProvider string    `json:"oauth_provider,omitempty"`
	OAuthSubject  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasPassword is false for accounts that only ever signed in through OAuth
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// LinkedElsewhere reports whether the account is tied to an OAuth provider other than provider
func (u *User) LinkedElsewhere(provider string) bool {
	return u.OAuthProvider != "" && u.OAuthProvider != provider
}

// Session is a signed-in browser, keyed by the random ID in its cookie
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the session is no longer valid at now
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
