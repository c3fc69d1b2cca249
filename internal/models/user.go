package models

import "time"

// User is an account row owned by the database gateway. Other code works
// with Identity, which never carries the password hash.
type User struct {
	Base
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Password     string     `gorm:"not null" json:"-"`
	FullName     string     `gorm:"size:100;not null;default:''" json:"full_name"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastSignInAt *time.Time `json:"last_sign_in_at,omitempty"`
}

// Identity is the authenticated user context of a session.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	// Name is the full name given at sign-up. It seeds the first profile.
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity returns the session identity for the user.
func (u *User) Identity() *Identity {
	return &Identity{ID: u.ID, Email: u.Email, Name: u.FullName, CreatedAt: u.CreatedAt}
}

// SameIdentity reports whether a and b denote the same signed-in user, treating
// two absent identities as equal.
func SameIdentity(a, b *Identity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.ID == b.ID
}
