package session

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	return NewStore(NewFileBackend(path), DefaultKeys()), path
}

func TestStore_SaveAndLoad(t *testing.T) {
	store, _ := newTestStore(t)

	want := Session{
		User:  User{ID: "u1", Email: "ada@example.com", Name: "Ada"},
		Token: "tok-123",
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok := store.Session()
	if !ok {
		t.Fatal("Session() absent after Save")
	}
	if got != want {
		t.Errorf("Session() = %+v, want %+v", got, want)
	}

	token, ok := store.Token()
	if !ok || token != "tok-123" {
		t.Errorf("Token() = %q, %v, want tok-123, true", token, ok)
	}
}

func TestStore_AbsentByDefault(t *testing.T) {
	store, _ := newTestStore(t)
	if _, ok := store.Session(); ok {
		t.Error("Session() present on empty store")
	}
	if _, ok := store.Token(); ok {
		t.Error("Token() present on empty store")
	}
}

func TestStore_Clear(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.Save(Session{User: User{ID: "u1"}, Token: "t"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok := store.Session(); ok {
		t.Error("Session() present after Clear")
	}
	// Clearing again is a no-op, not an error.
	if err := store.Clear(); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestStore_CorruptFileSelfHeals(t *testing.T) {
	store, path := newTestStore(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	if _, ok := store.Session(); ok {
		t.Fatal("Session() present for corrupt file")
	}

	// The corrupt file must have been cleared; a later Save must work.
	if err := store.Save(Session{User: User{ID: "u2"}, Token: "t2"}); err != nil {
		t.Fatalf("Save after self-heal: %v", err)
	}
	got, ok := store.Session()
	if !ok || got.User.ID != "u2" {
		t.Errorf("Session() after re-save = %+v, %v", got, ok)
	}
}

func TestStore_CorruptUserJSONSelfHeals(t *testing.T) {
	store, path := newTestStore(t)
	if err := os.WriteFile(path, []byte(`{"taskflow_token":"tok","taskflow_user":"{broken"}`), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	if _, ok := store.Session(); ok {
		t.Fatal("Session() present despite unparseable user record")
	}
	// Both entries are gone after self-heal.
	if _, ok := store.Token(); ok {
		t.Error("Token() present after self-heal")
	}
}

func TestStore_NoopBackend(t *testing.T) {
	store := NewStore(NewFileBackend(""), DefaultKeys())

	if err := store.Save(Session{User: User{ID: "u"}, Token: "t"}); err != nil {
		t.Fatalf("Save on noop backend: %v", err)
	}
	if _, ok := store.Session(); ok {
		t.Error("noop backend must never report a session")
	}
	if err := store.Clear(); err != nil {
		t.Errorf("Clear on noop backend: %v", err)
	}
}

func TestStore_InjectedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.json")
	a := NewStore(NewFileBackend(path), Keys{Token: "a_token", User: "a_user"})
	b := NewStore(NewFileBackend(path), Keys{Token: "b_token", User: "b_user"})

	if err := a.Save(Session{User: User{ID: "ua"}, Token: "ta"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := b.Session(); ok {
		t.Error("store with different keys sees the other namespace")
	}
	if got, ok := a.Session(); !ok || got.User.ID != "ua" {
		t.Errorf("a.Session() = %+v, %v", got, ok)
	}
}
