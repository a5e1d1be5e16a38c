package api

import (
	"errors"
	"net/http"
	"strings"

	"confessions/backend/internal/confession"
	"confessions/backend/internal/namecheck"
	"confessions/backend/internal/observability"

	"github.com/go-chi/chi/v5"
)

type nameValidationResponse struct {
	namecheck.Result
	PhoneticsOK      bool `json:"phonetics_ok"`
	FlaggedForReview bool `json:"flagged_for_review"`
}

func (s *Server) handleValidateName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	result := s.validator.Validate(req.Name)
	s.metrics.ObserveNameValidation("check", result.Valid, result.Confidence)
	writeJSON(w, http.StatusOK, nameValidationResponse{
		Result:           result,
		PhoneticsOK:      s.validator.CheckPhonetics(req.Name),
		FlaggedForReview: result.Valid && namecheck.FlaggedForReview(result),
	})
}

func (s *Server) handleListVibes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"vibes": confession.Vibes()})
}

func (s *Server) handleCreateConfession(w http.ResponseWriter, r *http.Request) {
	if !s.requireConfessions(w) || !s.requireUsers(w) {
		return
	}
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}

	// Tokens outlive a block, so the account is re-read on every submission.
	sender, err := s.users.FindUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, errUserNotFound) {
			writeUnauthorized(w, "account not found")
			return
		}
		writeInternalError(w, "could not query user")
		return
	}

	var req struct {
		VibeType string `json:"vibe_type"`
		Message  string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	created, result, err := s.confessions.Submit(r.Context(),
		confession.Sender{
			UserID:    identity.UserID,
			FullName:  identity.FullName,
			Instagram: identity.Instagram,
			Blocked:   sender.Blocked,
		},
		confession.Submission{Vibe: req.VibeType, Message: req.Message},
	)
	var rejected *confession.NameRejectedError
	if err == nil || errors.As(err, &rejected) {
		s.metrics.ObserveNameValidation("confession", result.Valid, result.Confidence)
	}
	if err != nil {
		s.writeConfessionError(w, r, err, "could not create confession")
		return
	}

	s.metrics.IncConfessionSubmitted(created.FlaggedForReview)
	if created.FlaggedForReview {
		s.logger.Warn("confession_flagged", observability.Fields{
			"request_id":       requestIDFromRequest(r),
			"confession_id":    created.ID,
			"validation_score": created.ValidationScore,
			"user_id":          identity.UserID,
		})
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"confession": created,
		"validation": result,
	})
}

func (s *Server) handleListMyConfessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireConfessions(w) {
		return
	}
	identity, ok := s.requireIdentity(w, r)
	if !ok {
		return
	}

	items, err := s.confessions.ListMine(r.Context(), identity.UserID)
	if err != nil {
		s.writeConfessionError(w, r, err, "could not load confessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"confessions": items})
}

func (s *Server) handleListPublicConfessions(w http.ResponseWriter, r *http.Request) {
	if !s.requireConfessions(w) {
		return
	}
	query := r.URL.Query()
	limit, err := parsePaginationLimit(query.Get("limit"), confession.DefaultPageSize, 1, confession.MaxPageSize)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	offset, err := parseOffset(query.Get("offset"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	items, err := s.confessions.ListPublic(r.Context(), strings.TrimSpace(query.Get("vibe")), limit, offset)
	if err != nil {
		s.writeConfessionError(w, r, err, "could not load confessions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"confessions": items,
		"limit":       limit,
		"offset":      offset,
	})
}

func (s *Server) handleGetConfession(w http.ResponseWriter, r *http.Request) {
	if !s.requireConfessions(w) {
		return
	}
	id, err := validateUUID(chi.URLParam(r, "id"), "confession id")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	item, err := s.confessions.GetPublic(r.Context(), id)
	if err != nil {
		s.writeConfessionError(w, r, err, "could not load confession")
		return
	}
	writeJSON(w, http.StatusOK, item)
}
