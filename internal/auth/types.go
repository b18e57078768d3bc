package auth

import (
	"errors"
	"time"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a
// wrong password. Its message is shown to the user as is.
var ErrInvalidCredentials = errors.New("Email ou mot de passe incorrect")

// ErrEmailTaken is returned when creating a user whose email already exists.
var ErrEmailTaken = errors.New("email already registered")

// ErrInvalidToken is returned by Verify for malformed, expired or forged tokens.
var ErrInvalidToken = errors.New("invalid token")

// User is an account able to sign in to the portal.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Claims are the verified contents of a session token.
type Claims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}
