package session

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// FileStore persists the session to a TOML file so it survives process
// restarts. Reads are served from an in-memory cache loaded once; writes
// go to a temp file renamed over the target so a crash never leaves a
// half-written session behind.
type FileStore struct {
	path string

	mu     sync.RWMutex
	cur    Session
	ok     bool
	gen    uint64
	loaded bool
}

// DefaultPath returns the standard session file location,
// ~/.local/state/sras/session.toml, creating the directory if needed.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "sras")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.toml"), nil
}

// NewFileStore creates a store backed by the given path. The file is not
// required to exist; an absent file means no session.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) loadLocked() {
	if f.loaded {
		return
	}
	f.loaded = true
	var s Session
	if _, err := toml.DecodeFile(f.path, &s); err != nil {
		return
	}
	if s.AccessToken == "" {
		return
	}
	f.cur = s
	f.ok = true
}

// Get returns the current session, if any.
func (f *FileStore) Get() (Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadLocked()
	return f.cur, f.ok
}

// Token returns the current access token, if a session is live.
func (f *FileStore) Token() (string, bool) {
	s, ok := f.Get()
	if !ok || s.AccessToken == "" {
		return "", false
	}
	return s.AccessToken, true
}

// Set replaces the current session, persists it, and bumps the generation.
// Persistence failures leave the in-memory session in place; the caller
// just loses durability across restarts.
func (f *FileStore) Set(s Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = true
	f.cur = s
	f.ok = true
	f.gen++
	_ = f.writeLocked(s)
}

func (f *FileStore) writeLocked(s Session) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(s); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// Clear drops the session, removes the file, and bumps the generation.
func (f *FileStore) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = true
	f.cur = Session{}
	f.ok = false
	f.gen++
	_ = os.Remove(f.path)
}

// Generation returns the current session generation.
func (f *FileStore) Generation() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.gen
}
