package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"confessions/backend/internal/auth"
	"confessions/backend/internal/confession"
	"confessions/backend/internal/namecheck"
	"confessions/backend/internal/observability"
)

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func decodeJSONAllowEmpty(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	writeBadRequest(w, err.Error())
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

func writeForbidden(w http.ResponseWriter, message string) {
	writeError(w, http.StatusForbidden, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, message)
}

func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, message)
}

func writeTooManyRequests(w http.ResponseWriter, message string) {
	writeError(w, http.StatusTooManyRequests, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, message)
}

// writeNameRejected surfaces the first validation error and the full result.
func writeNameRejected(w http.ResponseWriter, result namecheck.Result) {
	message := result.Primary()
	if message == "" {
		message = "Name could not be verified, please use your real full name"
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error":      message,
		"validation": result,
	})
}

func (s *Server) writeConfessionError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		rejected   *confession.NameRejectedError
		messageErr *confession.MessageError
	)
	switch {
	case errors.As(err, &rejected):
		writeNameRejected(w, rejected.Result)
	case errors.As(err, &messageErr):
		writeBadRequest(w, messageErr.Error())
	case errors.Is(err, confession.ErrInvalidVibe):
		writeBadRequest(w, "invalid vibe type")
	case errors.Is(err, confession.ErrNotesTooLong):
		writeBadRequest(w, err.Error())
	case errors.Is(err, confession.ErrSenderBlocked):
		writeForbidden(w, "account is blocked")
	case errors.Is(err, confession.ErrNotFound):
		writeNotFound(w, "confession not found")
	case errors.Is(err, confession.ErrNotPublic):
		writeForbidden(w, "confession is not public yet")
	case errors.Is(err, confession.ErrInvalidTransition):
		writeConflict(w, err.Error())
	default:
		s.logger.Error("confession_request_failed", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"route":      routePatternFromRequest(r),
			"error":      err.Error(),
		})
		writeInternalError(w, fallback)
	}
}

func (s *Server) requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "missing user")
		return auth.Identity{}, false
	}
	return identity, true
}

func (s *Server) requireConfessions(w http.ResponseWriter) bool {
	if s.confessions == nil {
		writeError(w, http.StatusServiceUnavailable, "database is not configured")
		return false
	}
	return true
}

func (s *Server) requireUsers(w http.ResponseWriter) bool {
	if s.users == nil {
		writeError(w, http.StatusServiceUnavailable, "database is not configured")
		return false
	}
	return true
}

func (s *Server) optionalUserIDFromRequest(r *http.Request) (string, bool) {
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		return userID, true
	}
	tokenString, err := auth.BearerToken(r)
	if err != nil {
		return "", false
	}
	claims, err := auth.ParseToken(s.cfg.JWTSecret, tokenString)
	if err != nil {
		return "", false
	}
	return claims.UserID, true
}
