// Package confession holds the confession domain: submissions from signed-up senders,
// the admin review workflow and the Postgres store behind them.
package confession

import (
	"errors"
	"strings"
	"time"

	"confessions/backend/internal/namecheck"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusPosted   Status = "posted"
)

func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, true
	case StatusApproved:
		return StatusApproved, true
	case StatusRejected:
		return StatusRejected, true
	case StatusPosted:
		return StatusPosted, true
	}
	return "", false
}

// CanTransition reports whether an admin may move a confession from one status to another.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusPosted || to == StatusRejected
	}
	return false
}

type Vibe string

const (
	VibeCoffeeDate   Vibe = "coffee_date"
	VibeDinner       Vibe = "dinner"
	VibeJustTalk     Vibe = "just_talk"
	VibeStudySession Vibe = "study_session"
	VibeAdventure    Vibe = "adventure"
	VibeTheOne       Vibe = "the_one"
)

type VibeOption struct {
	Value Vibe   `json:"value"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

var vibeOptions = []VibeOption{
	{Value: VibeCoffeeDate, Label: "Coffee Date", Emoji: "☕"},
	{Value: VibeDinner, Label: "Dinner", Emoji: "🍝"},
	{Value: VibeJustTalk, Label: "Just Talk", Emoji: "💬"},
	{Value: VibeStudySession, Label: "Study Session", Emoji: "📚"},
	{Value: VibeAdventure, Label: "Adventure", Emoji: "🏔"},
	{Value: VibeTheOne, Label: "The One", Emoji: "💘"},
}

func Vibes() []VibeOption {
	out := make([]VibeOption, len(vibeOptions))
	copy(out, vibeOptions)
	return out
}

func ParseVibe(value string) (Vibe, bool) {
	clean := Vibe(strings.ToLower(strings.TrimSpace(value)))
	for _, option := range vibeOptions {
		if option.Value == clean {
			return clean, true
		}
	}
	return "", false
}

func (v Vibe) Label() string {
	for _, option := range vibeOptions {
		if option.Value == v {
			return option.Label
		}
	}
	return string(v)
}

type VerificationStatus string

const (
	VerificationSkipped  VerificationStatus = "skipped"
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationSuspect  VerificationStatus = "suspect"
)

type Confession struct {
	ID                 string             `json:"id"`
	Number             int                `json:"confession_number"`
	SenderID           string             `json:"sender_id,omitempty"`
	SenderName         string             `json:"sender_name"`
	SenderInstagram    string             `json:"sender_instagram,omitempty"`
	Vibe               Vibe               `json:"vibe_type"`
	Message            string             `json:"message"`
	Status             Status             `json:"status"`
	ValidationScore    int                `json:"validation_score"`
	FlaggedForReview   bool               `json:"flagged_for_review"`
	AdminNotes         string             `json:"admin_notes,omitempty"`
	PostedToInstagram  bool               `json:"posted_to_instagram"`
	InstagramPostURL   string             `json:"instagram_post_url,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status"`
	APIConfidence      *int               `json:"api_confidence,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	PostedAt           *time.Time         `json:"posted_at,omitempty"`
}

// Public strips the fields only the sender and admins may see.
func (c Confession) Public() Confession {
	c.SenderID = ""
	c.AdminNotes = ""
	c.APIConfidence = nil
	c.ValidationScore = 0
	c.FlaggedForReview = false
	c.VerificationStatus = ""
	return c
}

type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Posted   int `json:"posted"`
	Flagged  int `json:"flagged"`
	Suspect  int `json:"suspect"`
}

type Sender struct {
	UserID    string
	FullName  string
	Instagram string
	Blocked   bool
}

type Submission struct {
	Vibe    string
	Message string
}

type AdminFilter struct {
	Status  Status
	Flagged *bool
	Limit   int
	Offset  int
}

type StatusChange struct {
	From             Status
	To               Status
	AdminNotes       *string
	InstagramPostURL string
}

var (
	ErrNotFound          = errors.New("confession not found")
	ErrInvalidVibe       = errors.New("invalid vibe type")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotPublic         = errors.New("confession is not public")
	ErrNotesTooLong      = errors.New("admin notes are too long")
	ErrSenderBlocked     = errors.New("sender is blocked")
)

// MessageError reports a confession message that failed the content checks.
type MessageError struct {
	Err error
}

func (e *MessageError) Error() string {
	return e.Err.Error()
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

// NameRejectedError is returned when the sender's name fails validation.
type NameRejectedError struct {
	Result namecheck.Result
}

func (e *NameRejectedError) Error() string {
	if e == nil {
		return "name rejected"
	}
	if primary := e.Result.Primary(); primary != "" {
		return primary
	}
	return "name rejected"
}
