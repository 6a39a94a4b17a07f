// Package session persists the signed-in user and bearer credential between
// command invocations. The persisted form is a small key-value record; a
// corrupted record is treated as "signed out", never as a fatal error.
package session

import "encoding/json"

// User identifies the signed-in account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Session pairs the user identity with the bearer credential returned by
// the auth endpoints.
type Session struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// Keys names the backend entries a Store reads and writes. Injected rather
// than hardcoded so tests can run against throwaway namespaces.
type Keys struct {
	Token string
	User  string
}

// DefaultKeys returns the key names used by the taskflow CLI.
func DefaultKeys() Keys {
	return Keys{Token: "taskflow_token", User: "taskflow_user"}
}

// Store reads and writes the current session through a Backend.
type Store struct {
	backend Backend
	keys    Keys
}

// NewStore creates a Store over the given backend and key names.
func NewStore(b Backend, keys Keys) *Store {
	return &Store{backend: b, keys: keys}
}

// Session returns the persisted session, or false when none exists. Any
// read or parse failure self-heals: the stored entries are cleared and the
// session is reported absent.
func (s *Store) Session() (Session, bool) {
	token, ok, err := s.backend.Get(s.keys.Token)
	if err != nil {
		s.Clear()
		return Session{}, false
	}
	if !ok || token == "" {
		return Session{}, false
	}

	userJSON, ok, err := s.backend.Get(s.keys.User)
	if err != nil || !ok || userJSON == "" {
		s.Clear()
		return Session{}, false
	}

	var user User
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		s.Clear()
		return Session{}, false
	}

	return Session{User: user, Token: token}, true
}

// Token returns the bearer credential of the current session, or false when
// signed out. Satisfies the api.TokenSource contract.
func (s *Store) Token() (string, bool) {
	sess, ok := s.Session()
	if !ok {
		return "", false
	}
	return sess.Token, true
}

// Save persists the session.
func (s *Store) Save(sess Session) error {
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return err
	}
	if err := s.backend.Set(s.keys.Token, sess.Token); err != nil {
		return err
	}
	return s.backend.Set(s.keys.User, string(userJSON))
}

// Clear removes any persisted session. Clearing an absent session is a
// no-op.
func (s *Store) Clear() error {
	if err := s.backend.Delete(s.keys.Token); err != nil {
		return err
	}
	return s.backend.Delete(s.keys.User)
}
