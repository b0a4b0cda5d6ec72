// Package session holds the credential used for every call to the remote services.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/study-planner/internal/models"
)

// Holder is the single source of truth for the current token. It is safe for concurrent use.
type Holder struct {
	mu       sync.RWMutex
	token    string
	user     models.User
	verified bool
	onClear  []func(userID int)
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Set installs a credential. verified reports whether the auth service confirmed it.
func (h *Holder) Set(token string, user models.User, verified bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
	h.user = user
	h.verified = verified
}

// MarkVerified flags the current credential as confirmed.
func (h *Holder) MarkVerified() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.token != "" {
		h.verified = true
	}
}

// Token returns the current token, empty when logged out.
func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Authenticated reports whether a token is held.
func (h *Holder) Authenticated() bool {
	return h.Token() != ""
}

// UserID returns the id of the session user, falling back to the token claims. It is 0
// when logged out.
func (h *Holder) UserID() int {
	h.mu.RLock()
	token, id := h.token, h.user.ID
	h.mu.RUnlock()
	return resolveUserID(token, id)
}

func resolveUserID(token string, id int) int {
	if token == "" || id != 0 {
		return id
	}
	if claims, err := DecodeClaims(token); err == nil {
		return claims.UserID
	}
	return 0
}

// Clear drops the credential and notifies listeners registered with OnClear. Clearing an
// empty holder is a no-op.
func (h *Holder) Clear() {
	h.clear(func(string) bool { return true })
}

// ClearIfToken drops the credential only while sent is still the held token. A rejection of
// a token that was replaced in the meantime leaves the newer session alone.
func (h *Holder) ClearIfToken(sent string) bool {
	return h.clear(func(current string) bool { return current == sent })
}

func (h *Holder) clear(match func(current string) bool) bool {
	h.mu.Lock()
	if h.token == "" || !match(h.token) {
		h.mu.Unlock()
		return false
	}
	userID := resolveUserID(h.token, h.user.ID)
	h.token = ""
	h.user = models.User{}
	h.verified = false
	listeners := append([]func(int){}, h.onClear...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(userID)
	}
	return true
}

// OnClear registers fn to run after the credential is dropped. fn receives the id of the
// user whose session ended, 0 when it could not be determined.
func (h *Holder) OnClear(fn func(userID int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClear = append(h.onClear, fn)
}

// Info describes the session for display. The token itself is not included.
func (h *Holder) Info(now time.Time) models.SessionInfo {
	h.mu.RLock()
	token, user, verified := h.token, h.user, h.verified
	h.mu.RUnlock()

	if token == "" {
		return models.SessionInfo{}
	}
	info := models.SessionInfo{Authenticated: true, Verified: verified, User: &user}
	if claims, err := DecodeClaims(token); err == nil {
		if user.ID == 0 {
			info.User.ID = claims.UserID
		}
		if user.Email == "" {
			info.User.Email = claims.Email
		}
		if claims.ExpiresAt != nil {
			exp := claims.ExpiresAt.Time.UTC()
			info.ExpiresAt = &exp
			info.Expired = !now.Before(exp)
		}
	}
	return info
}

// DecodeClaims reads the token payload without checking its signature. The local program does
// not hold the signing key, so the result is for display only.
func DecodeClaims(token string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}
