package api

import (
	"errors"
	"net/http"

	"confessions/backend/internal/confession"
	"confessions/backend/internal/observability"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	if !s.requireConfessions(w) {
		return
	}
	stats, err := s.confessions.Stats(r.Context())
	if err != nil {
		s.writeConfessionError(w, r, err, "could not load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminListConfessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireConfessions(w) {
		return
	}
	query := r.URL.Query()

	var filter confession.AdminFilter
	if raw := query.Get("status"); raw != "" {
		status, ok := confession.ParseStatus(raw)
		if !ok {
			writeBadRequest(w, "status is invalid")
			return
		}
		filter.Status = status
	}
	flagged, err := parseOptionalBool(query.Get("flagged"), "flagged")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	filter.Flagged = flagged
	if filter.Limit, err = parsePaginationLimit(query.Get("limit"), confession.DefaultPageSize, 1, confession.MaxPageSize); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if filter.Offset, err = parseOffset(query.Get("offset")); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	items, err := s.confessions.ListForAdmin(r.Context(), filter)
	if err != nil {
		s.writeConfessionError(w, r, err, "could not load confessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"confessions": items})
}

func (s *Server) handleAdminReview(action confession.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.requireConfessions(w) {
			return
		}
		identity, ok := s.requireIdentity(w, r)
		if !ok {
			return
		}
		id, err := validateUUID(chi.URLParam(r, "id"), "confession id")
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}

		var req struct {
			Notes            string `json:"notes"`
			InstagramPostURL string `json:"instagram_post_url"`
		}
		if err := decodeJSONAllowEmpty(r, &req); err != nil {
			writeDecodeError(w, err)
			return
		}
		postURL, err := validatePostURL(req.InstagramPostURL)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}

		updated, err := s.confessions.Review(r.Context(), id, action, confession.ReviewInput{
			Notes:            req.Notes,
			InstagramPostURL: postURL,
		})
		if err != nil {
			s.writeConfessionError(w, r, err, "could not update confession")
			return
		}

		s.logger.Info("confession_reviewed", observability.Fields{
			"request_id":    requestIDFromRequest(r),
			"confession_id": updated.ID,
			"action":        string(action),
			"status":        string(updated.Status),
			"admin_id":      identity.UserID,
		})
		writeJSON(w, http.StatusOK, updated)
	}
}

func (s *Server) handleAdminUpdateNotes(w http.ResponseWriter, r *http.Request) {
	if !s.requireConfessions(w) {
		return
	}
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := validateUUID(chi.URLParam(r, "id"), "confession id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	updated, err := s.confessions.UpdateNotes(r.Context(), id, req.Notes)
	if err != nil {
		s.writeConfessionError(w, r, err, "could not update notes")
		return
	}

	s.logger.Info("confession_notes_updated", observability.Fields{
		"request_id":    requestIDFromRequest(r),
		"confession_id": updated.ID,
		"admin_id":      identity.UserID,
	})
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	if !s.requireUsers(w) {
		return
	}
	query := r.URL.Query()

	filter := UserFilter{Search: query.Get("search")}
	var err error
	if filter.Limit, err = parsePaginationLimit(query.Get("limit"), confession.DefaultPageSize, 1, confession.MaxPageSize); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if filter.Offset, err = parseOffset(query.Get("offset")); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	users, err := s.users.ListUsers(r.Context(), filter)
	if err != nil {
		s.logger.Error("admin_list_users_failed", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"error":      err.Error(),
		})
		writeInternalError(w, "could not load users")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (s *Server) handleAdminBlockUser(w http.ResponseWriter, r *http.Request) {
	if !s.requireUsers(w) {
		return
	}
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}
	id, err := validateUUID(chi.URLParam(r, "id"), "user id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	var req struct {
		Blocked *bool `json:"blocked"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if req.Blocked == nil {
		writeBadRequest(w, "blocked is required")
		return
	}
	if *req.Blocked && id == identity.UserID {
		writeBadRequest(w, "cannot block your own account")
		return
	}

	user, err := s.users.SetBlocked(r.Context(), id, *req.Blocked)
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("admin_block_user_failed", observability.Fields{
			"request_id": requestIDFromRequest(r),
			"user_id":    id,
			"error":      err.Error(),
		})
		writeInternalError(w, "could not update user")
		return
	}

	s.logger.Info("user_block_updated", observability.Fields{
		"request_id": requestIDFromRequest(r),
		"user_id":    user.ID,
		"blocked":    user.Blocked,
		"admin_id":   identity.UserID,
	})
	writeJSON(w, http.StatusOK, user)
}
