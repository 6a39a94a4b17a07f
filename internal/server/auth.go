package server

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskflowhq/taskflow-cli/internal/api"
	"github.com/taskflowhq/taskflow-cli/internal/session"
	"github.com/taskflowhq/taskflow-cli/internal/storage"
)

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req api.SignUpRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var details []api.ErrorDetail
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		details = append(details, api.ErrorDetail{Field: "email", Message: "A valid email is required"})
	}
	if len(req.Password) < 8 {
		details = append(details, api.ErrorDetail{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if strings.TrimSpace(req.Name) == "" {
		details = append(details, api.ErrorDetail{Field: "name", Message: "Name is required"})
	}
	if len(details) > 0 {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Validation failed", details)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(w, err)
		return
	}

	user := storage.User{
		ID:           s.newID(),
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(user); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists", nil)
			return
		}
		s.internalError(w, err)
		return
	}

	s.writeAuthData(w, http.StatusCreated, user)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var creds api.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}

	user, err := s.store.GetUserByEmail(strings.TrimSpace(strings.ToLower(creds.Email)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect email or password", nil)
			return
		}
		s.internalError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect email or password", nil)
		return
	}

	s.writeAuthData(w, http.StatusOK, user)
}

// handleMe returns the account behind the presented token. A token whose
// subject no longer exists in the store is as good as no token.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(userID(r.Context()))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Sign in required", nil)
			return
		}
		s.internalError(w, err)
		return
	}
	writeData(w, http.StatusOK, session.User{ID: user.ID, Email: user.Email, Name: user.Name}, nil)
}

func (s *Server) writeAuthData(w http.ResponseWriter, status int, user storage.User) {
	token, err := s.issueToken(user.ID)
	if err != nil {
		s.internalError(w, err)
		return
	}
	writeData(w, status, api.AuthData{
		User:  session.User{ID: user.ID, Email: user.Email, Name: user.Name},
		Token: token,
	}, nil)
}
