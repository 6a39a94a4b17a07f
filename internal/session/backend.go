package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Backend is the persistence medium behind a Store.
type Backend interface {
	Get(key string) (val string, ok bool, err error)
	Set(key, val string) error
	Delete(key string) error
}

// FileBackend stores entries as a flat JSON object in a single file,
// created with owner-only permissions since it holds a credential.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend over the given file path. When path is
// empty there is no persistence medium, and a NoopBackend is returned
// instead; every operation succeeds without storing anything.
func NewFileBackend(path string) Backend {
	if path == "" {
		return NoopBackend{}
	}
	return &FileBackend{path: path}
}

func (b *FileBackend) read() (map[string]string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (b *FileBackend) write(entries map[string]string) error {
	if len(entries) == 0 {
		err := os.Remove(b.path)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(b.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, data, 0o600)
}

func (b *FileBackend) Get(key string) (string, bool, error) {
	entries, err := b.read()
	if err != nil {
		return "", false, err
	}
	v, ok := entries[key]
	return v, ok, nil
}

func (b *FileBackend) Set(key, val string) error {
	entries, err := b.read()
	if err != nil {
		// A corrupt file is replaced rather than surfaced.
		entries = map[string]string{}
	}
	entries[key] = val
	return b.write(entries)
}

func (b *FileBackend) Delete(key string) error {
	entries, err := b.read()
	if err != nil {
		// Corrupt file: deleting anything from it means discarding it.
		return b.write(map[string]string{})
	}
	delete(entries, key)
	return b.write(entries)
}

// NoopBackend is used when no persistence medium is available. Reads find
// nothing; writes and deletes succeed without effect.
type NoopBackend struct{}

func (NoopBackend) Get(string) (string, bool, error) { return "", false, nil }
func (NoopBackend) Set(string, string) error         { return nil }
func (NoopBackend) Delete(string) error              { return nil }

var errNoHome = errors.New("no user config directory")

// DefaultPath resolves the session file location under the user config
// directory, following XDG conventions. Returns "" when no config
// directory can be resolved (non-interactive environments), which makes
// NewFileBackend fall back to the no-op backend.
func DefaultPath() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "taskflow", "session.json")
}

func configDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errNoHome
	}
	return filepath.Join(home, ".config"), nil
}
