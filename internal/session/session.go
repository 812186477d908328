// Package session holds the authenticated reviewer session: the JWT pair
// plus the identity fetched at login. Exactly one live session exists per
// process; every authenticated request reads the current token at send time
// through TokenSource, so a rotated or cleared token takes effect on the
// next outbound call.
package session

import (
	"sync"
)

// Session is the persisted login state produced by a successful
// POST /api/auth/token/ plus the optional /api/users/me/ lookup.
type Session struct {
	AccessToken  string `toml:"access_token" json:"access_token"`
	RefreshToken string `toml:"refresh_token" json:"refresh_token"`
	UserID       int    `toml:"user_id" json:"user_id"`
	Username     string `toml:"username" json:"username"`
	FullName     string `toml:"full_name,omitempty" json:"full_name,omitempty"`
	Role         string `toml:"role,omitempty" json:"role,omitempty"`
}

// TokenSource supplies the current access token for outbound requests.
// The second return is false when no session is live.
type TokenSource interface {
	Token() (string, bool)
}

// Store is the session storage contract. Get/Set/Clear follow
// single-writer-many-reader discipline; last write wins.
//
// Generation increments on every Set and Clear. Long-running operations
// capture it before starting and discard their result if it has moved,
// which keeps a poll started under an old session from being applied
// after logout or re-login.
type Store interface {
	TokenSource
	Get() (Session, bool)
	Set(s Session)
	Clear()
	Generation() uint64
}

// MemoryStore is an in-process Store. Used directly in tests and embedded
// by FileStore for the cached view of the on-disk session.
type MemoryStore struct {
	mu  sync.RWMutex
	cur Session
	ok  bool
	gen uint64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns the current session, if any.
func (m *MemoryStore) Get() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur, m.ok
}

// Token returns the current access token, if a session is live.
func (m *MemoryStore) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ok || m.cur.AccessToken == "" {
		return "", false
	}
	return m.cur.AccessToken, true
}

// Set replaces the current session and bumps the generation.
func (m *MemoryStore) Set(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = s
	m.ok = true
	m.gen++
}

// Clear drops the current session and bumps the generation.
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cur = Session{}
	m.ok = false
	m.gen++
}

// Generation returns the current session generation.
func (m *MemoryStore) Generation() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}
