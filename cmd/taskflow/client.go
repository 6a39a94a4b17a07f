package main

import (
	"fmt"

	"github.com/taskflowhq/taskflow-cli/internal/api"
	"github.com/taskflowhq/taskflow-cli/internal/config"
	"github.com/taskflowhq/taskflow-cli/internal/session"
)

// newAPIClient builds the API client from config and the saved session.
// Declared as a variable so tests can swap it for one pointed at a test
// server.
var newAPIClient = func() (*api.Client, *session.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	store := session.NewStore(session.NewFileBackend(cfg.Session.Path), session.DefaultKeys())
	return api.NewClient(cfg.API.BaseURL, store), store, nil
}

// requireSession returns the saved session or an instruction to sign in.
func requireSession(store *session.Store) (session.Session, error) {
	sess, ok := store.Session()
	if !ok {
		return session.Session{}, fmt.Errorf("not signed in; run `taskflow signin` first")
	}
	return sess, nil
}

// checked unwraps an envelope: a nil error and the data on success, the
// application error otherwise.
func checked[T any](env *api.Envelope[T], err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	if !env.Ok() {
		return nil, env.Err
	}
	return env.Data, nil
}
