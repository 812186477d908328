package session

import (
	"path/filepath"
	"testing"
)

func testSession() Session {
	return Session{
		AccessToken:  "access-abc",
		RefreshToken: "refresh-def",
		UserID:       7,
		Username:     "enforcer1",
		FullName:     "Pat Cruz",
		Role:         "enforcer",
	}
}

func TestMemoryStore_SetGetClear(t *testing.T) {
	m := NewMemoryStore()

	if _, ok := m.Get(); ok {
		t.Fatal("Get() on empty store returned ok=true")
	}
	if _, ok := m.Token(); ok {
		t.Fatal("Token() on empty store returned ok=true")
	}

	m.Set(testSession())
	got, ok := m.Get()
	if !ok {
		t.Fatal("Get() after Set returned ok=false")
	}
	if got.Username != "enforcer1" || got.UserID != 7 {
		t.Errorf("Get() = %+v, want testSession", got)
	}
	tok, ok := m.Token()
	if !ok || tok != "access-abc" {
		t.Errorf("Token() = %q, %v, want 'access-abc', true", tok, ok)
	}

	m.Clear()
	if _, ok := m.Get(); ok {
		t.Error("Get() after Clear returned ok=true")
	}
	if _, ok := m.Token(); ok {
		t.Error("Token() after Clear returned ok=true")
	}
}

func TestMemoryStore_GenerationBumpsOnWrite(t *testing.T) {
	m := NewMemoryStore()
	g0 := m.Generation()

	m.Set(testSession())
	g1 := m.Generation()
	if g1 <= g0 {
		t.Errorf("Generation after Set = %d, want > %d", g1, g0)
	}

	m.Clear()
	g2 := m.Generation()
	if g2 <= g1 {
		t.Errorf("Generation after Clear = %d, want > %d", g2, g1)
	}

	// Reads never bump.
	m.Get()
	m.Token()
	if m.Generation() != g2 {
		t.Errorf("Generation after reads = %d, want %d", m.Generation(), g2)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")

	f := NewFileStore(path)
	f.Set(testSession())

	// A fresh store over the same path sees the persisted session.
	f2 := NewFileStore(path)
	got, ok := f2.Get()
	if !ok {
		t.Fatal("Get() on reloaded store returned ok=false")
	}
	if got != testSession() {
		t.Errorf("reloaded session = %+v, want %+v", got, testSession())
	}
	tok, ok := f2.Token()
	if !ok || tok != "access-abc" {
		t.Errorf("Token() = %q, %v, want 'access-abc', true", tok, ok)
	}
}

func TestFileStore_MissingFileMeansNoSession(t *testing.T) {
	f := NewFileStore(filepath.Join(t.TempDir(), "absent.toml"))
	if _, ok := f.Get(); ok {
		t.Error("Get() with no file returned ok=true")
	}
}

func TestFileStore_ClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")

	f := NewFileStore(path)
	f.Set(testSession())
	f.Clear()

	if _, ok := f.Get(); ok {
		t.Error("Get() after Clear returned ok=true")
	}

	// The file is gone, so a fresh store sees nothing either.
	f2 := NewFileStore(path)
	if _, ok := f2.Get(); ok {
		t.Error("Get() on reloaded store after Clear returned ok=true")
	}
}

func TestFileStore_Generation(t *testing.T) {
	f := NewFileStore(filepath.Join(t.TempDir(), "session.toml"))
	g0 := f.Generation()
	f.Set(testSession())
	if f.Generation() <= g0 {
		t.Error("Generation did not advance on Set")
	}
	g1 := f.Generation()
	f.Clear()
	if f.Generation() <= g1 {
		t.Error("Generation did not advance on Clear")
	}
}

func TestStoreInterfaces(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
	var _ Store = (*FileStore)(nil)
}
