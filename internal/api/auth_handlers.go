package api

import (
	"errors"
	"net/http"
	"strings"

	"confessions/backend/internal/auth"
	"confessions/backend/internal/observability"
)

const minPasswordLength = 8

type authResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !s.requireUsers(w) {
		return
	}
	var req struct {
		Email             string `json:"email"`
		Password          string `json:"password"`
		FullName          string `json:"full_name"`
		InstagramUsername string `json:"instagram_username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	email, err := validateEmail(req.Email)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}
	instagram, err := validateInstagram(req.InstagramUsername)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	fullName := strings.TrimSpace(req.FullName)
	result := s.validator.Validate(fullName)
	s.metrics.ObserveNameValidation("signup", result.Valid, result.Confidence)
	if !result.Valid {
		writeNameRejected(w, result)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeInternalError(w, "could not hash password")
		return
	}

	user, err := s.users.CreateUser(r.Context(), User{
		Email:               email,
		PasswordHash:        hash,
		FullName:            fullName,
		InstagramUsername:   instagram,
		NameValidationScore: result.Confidence,
	})
	if err != nil {
		if errors.Is(err, errEmailTaken) {
			writeConflict(w, "email already registered")
			return
		}
		s.logger.Error("signup_failed", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"error":      err.Error(),
		})
		writeInternalError(w, "could not create user")
		return
	}

	s.writeSession(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.requireUsers(w) {
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := s.users.FindUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			writeUnauthorized(w, "invalid credentials")
			return
		}
		writeInternalError(w, "could not query user")
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		writeUnauthorized(w, "invalid credentials")
		return
	}
	if user.Blocked {
		writeForbidden(w, "account is blocked")
		return
	}

	s.writeSession(w, http.StatusOK, user)
}

func (s *Server) writeSession(w http.ResponseWriter, status int, user User) {
	role := auth.RoleUser
	if user.IsAdmin {
		role = auth.RoleAdmin
	}
	token, err := auth.CreateToken(s.cfg.JWTSecret, auth.Identity{
		UserID:    user.ID,
		FullName:  user.FullName,
		Instagram: user.InstagramUsername,
		Role:      role,
	}, s.cfg.TokenTTL)
	if err != nil {
		writeInternalError(w, "could not create token")
		return
	}
	writeJSON(w, status, authResponse{Token: token, User: user})
}
