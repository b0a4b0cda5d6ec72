package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credentials holds the email and password sent to the auth service.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest asks for the password twice.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// User describes the authenticated account.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// TokenValidation is the auth service verdict on a token.
type TokenValidation struct {
	Valid  bool   `json:"valid"`
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
}

// TokenClaims are read from the token payload without verifying the signature. They are
// only used for display.
type TokenClaims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// StoredSession is what survives a restart.
type StoredSession struct {
	Token   string    `json:"token"`
	User    User      `json:"user"`
	SavedAt time.Time `json:"saved_at"`
}

// SessionInfo describes the current local session. Token is never exposed.
type SessionInfo struct {
	Authenticated bool       `json:"authenticated"`
	Verified      bool       `json:"verified"`
	User          *User      `json:"user,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Expired       bool       `json:"expired"`
}
