package confession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"confessions/backend/internal/namecheck"
	"confessions/backend/internal/safety"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Options struct {
	MessageMinLen    int
	MessageMaxLen    int
	AdminNotesMaxLen int
}

type Service struct {
	store     Store
	validator *namecheck.Validator
	opts      Options
}

// NewService wires a Service. A nil validator falls back to namecheck.Default().
func NewService(store Store, validator *namecheck.Validator, opts Options) *Service {
	if validator == nil {
		validator = namecheck.Default()
	}
	if opts.MessageMinLen <= 0 {
		opts.MessageMinLen = 20
	}
	if opts.MessageMaxLen <= 0 {
		opts.MessageMaxLen = 1000
	}
	if opts.AdminNotesMaxLen <= 0 {
		opts.AdminNotesMaxLen = 500
	}
	return &Service{store: store, validator: validator, opts: opts}
}

// Submit validates a confession and stores it as pending. The sender's full name goes
// through the name validator; low-confidence names are accepted but flagged for review.
func (s *Service) Submit(ctx context.Context, sender Sender, sub Submission) (Confession, namecheck.Result, error) {
	if sender.Blocked {
		return Confession{}, namecheck.Result{}, ErrSenderBlocked
	}
	vibe, ok := ParseVibe(sub.Vibe)
	if !ok {
		return Confession{}, namecheck.Result{}, ErrInvalidVibe
	}

	message, err := safety.ValidateMessage(sub.Message, s.opts.MessageMinLen, s.opts.MessageMaxLen)
	if err != nil {
		return Confession{}, namecheck.Result{}, &MessageError{Err: err}
	}

	fullName := strings.TrimSpace(sender.FullName)
	result := s.validator.Validate(fullName)
	if !result.Valid {
		return Confession{}, result, &NameRejectedError{Result: result}
	}

	c := Confession{
		SenderID:         sender.UserID,
		SenderName:       fullName,
		SenderInstagram:  normalizeInstagram(sender.Instagram),
		Vibe:             vibe,
		Message:          message,
		Status:           StatusPending,
		ValidationScore:  result.Confidence,
		FlaggedForReview: namecheck.FlaggedForReview(result),
	}
	if err := s.store.Create(ctx, &c); err != nil {
		return Confession{}, result, err
	}
	return c, result, nil
}

// GetPublic returns a confession only once it has been posted.
func (s *Service) GetPublic(ctx context.Context, id string) (Confession, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return Confession{}, err
	}
	if c.Status != StatusPosted {
		return Confession{}, ErrNotPublic
	}
	return c.Public(), nil
}

func (s *Service) ListPublic(ctx context.Context, vibe string, limit, offset int) ([]Confession, error) {
	var filter Vibe
	if strings.TrimSpace(vibe) != "" {
		parsed, ok := ParseVibe(vibe)
		if !ok {
			return nil, ErrInvalidVibe
		}
		filter = parsed
	}
	limit, offset = clampPage(limit, offset)

	items, err := s.store.ListPublic(ctx, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i] = items[i].Public()
	}
	return items, nil
}

func (s *Service) ListMine(ctx context.Context, senderID string) ([]Confession, error) {
	return s.store.ListBySender(ctx, senderID)
}

func (s *Service) ListForAdmin(ctx context.Context, filter AdminFilter) ([]Confession, error) {
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)
	return s.store.ListForAdmin(ctx, filter)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionPost    Action = "post"
)

type ReviewInput struct {
	Notes            string
	InstagramPostURL string
}

// Review dispatches an admin action on a confession.
func (s *Service) Review(ctx context.Context, id string, action Action, input ReviewInput) (Confession, error) {
	switch action {
	case ActionApprove:
		return s.Approve(ctx, id, input.Notes)
	case ActionReject:
		return s.Reject(ctx, id, input.Notes)
	case ActionPost:
		return s.MarkPosted(ctx, id, input.InstagramPostURL)
	}
	return Confession{}, fmt.Errorf("unknown review action %q", action)
}

func (s *Service) Approve(ctx context.Context, id, notes string) (Confession, error) {
	return s.transition(ctx, id, StatusApproved, notes, "")
}

func (s *Service) Reject(ctx context.Context, id, notes string) (Confession, error) {
	return s.transition(ctx, id, StatusRejected, notes, "")
}

func (s *Service) MarkPosted(ctx context.Context, id, postURL string) (Confession, error) {
	return s.transition(ctx, id, StatusPosted, "", postURL)
}

func (s *Service) transition(ctx context.Context, id string, to Status, notes, postURL string) (Confession, error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return Confession{}, err
	}
	if !CanTransition(current.Status, to) {
		return Confession{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, current.Status, to)
	}

	change := StatusChange{From: current.Status, To: to, InstagramPostURL: strings.TrimSpace(postURL)}
	if clean := safety.Sanitize(notes); clean != "" {
		if err := s.checkNotesLength(clean); err != nil {
			return Confession{}, err
		}
		change.AdminNotes = &clean
	}

	updated, err := s.store.UpdateStatus(ctx, id, change)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return Confession{}, fmt.Errorf("%w: %s changed concurrently", ErrInvalidTransition, id)
		}
		return Confession{}, err
	}
	return updated, nil
}

// UpdateNotes replaces the admin notes without touching the status. Empty notes clear them.
func (s *Service) UpdateNotes(ctx context.Context, id, notes string) (Confession, error) {
	clean := safety.Sanitize(notes)
	if err := s.checkNotesLength(clean); err != nil {
		return Confession{}, err
	}
	return s.store.UpdateNotes(ctx, id, clean)
}

func (s *Service) checkNotesLength(notes string) error {
	if utf8.RuneCountInString(notes) > s.opts.AdminNotesMaxLen {
		return fmt.Errorf("%w (max %d characters)", ErrNotesTooLong, s.opts.AdminNotesMaxLen)
	}
	return nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func normalizeInstagram(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}
