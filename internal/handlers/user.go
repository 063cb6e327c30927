package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/blackjack/internal/auth"
	"github.com/jason-s-yu/blackjack/internal/database"
	"github.com/jason-s-yu/blackjack/internal/models"
)

// EnsureEphemeralUser returns the player behind the session cookie. A visitor without a
// valid session gets a fresh guest account and a cookie for it.
func (s *Server) EnsureEphemeralUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	if id, err := auth.PlayerFromRequest(r); err == nil {
		return id, nil
	} else if !errors.Is(err, auth.ErrNoSession) {
		s.Logger.Debugf("replacing invalid session from %s: %v", r.RemoteAddr, err)
	}

	guest := models.User{
		Username:    "Guest",
		IsEphemeral: true,
	}
	if err := s.Users.CreateUser(r.Context(), &guest); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create ephemeral user: %w", err)
	}
	token, err := auth.CreateJWT(guest.ID.String())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create ephemeral JWT: %w", err)
	}
	auth.SetSessionCookie(w, token)
	s.Logger.WithField("player", guest.ID).Info("created guest player")
	return guest.ID, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

func (c credentialsRequest) validate() error {
	if !strings.Contains(c.Email, "@") {
		return errors.New("a valid email is required")
	}
	if len(c.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	return nil
}

// CreateUserHandler registers a permanent account with the starting EXP grant.
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Username == "" {
		req.Username = strings.SplitN(req.Email, "@", 2)[0]
	}

	user := models.User{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	}
	if err := s.Users.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, database.ErrUserExists) {
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		s.Logger.Errorf("failed to create user: %v", err)
		writeError(w, http.StatusInternalServerError, "error creating user")
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

type loginResponse struct {
	Token string `json:"token"`
}

// LoginHandler exchanges email and password for a session token, returned in the body
// and set as the auth_token cookie.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	token, err := s.Users.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, database.ErrInvalidCredential) {
			writeError(w, http.StatusForbidden, "authentication failed")
			return
		}
		s.Logger.Errorf("failed to authenticate user: %v", err)
		writeError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	auth.SetSessionCookie(w, token)
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// ClaimEphemeralHandler attaches credentials to the caller's guest account. The
// player keeps their id, EXP and record.
func (s *Server) ClaimEphemeralHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.PlayerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusForbidden, "invalid token")
		return
	}

	u, err := s.Users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.Logger.Errorf("failed to load user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	if !u.IsEphemeral {
		writeError(w, http.StatusBadRequest, "user is not ephemeral")
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid claim payload")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u.Email = req.Email
	u.Password = req.Password
	if req.Username != "" {
		u.Username = req.Username
	}
	if err := s.Users.ClaimUser(r.Context(), u); err != nil {
		if errors.Is(err, database.ErrUserExists) {
			writeError(w, http.StatusConflict, "email already exists")
			return
		}
		s.Logger.Errorf("failed to claim user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to finalize ephemeral user")
		return
	}
	u.Password = ""
	writeJSON(w, http.StatusOK, u)
}

// StatsHandler reports the caller's EXP balance, wins and losses.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := s.EnsureEphemeralUser(w, r)
	if err != nil {
		s.Logger.Errorf("session: %v", err)
		writeError(w, http.StatusInternalServerError, "could not establish a session")
		return
	}
	stats, err := s.Table.Stats(r.Context(), playerID)
	if err != nil {
		status, msg := tableErrorStatus(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
