package confession_test

import (
	"context"
	"errors"
	"testing"

	"confessions/backend/internal/confession"
	"confessions/backend/internal/confession/confessiontest"
	"confessions/backend/internal/namecheck"
	"confessions/backend/internal/safety"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMessage = "You always save me a seat in the back row of stats."

func newTestService(store confession.Store) *confession.Service {
	return confession.NewService(store, nil, confession.Options{})
}

func TestSubmitStoresTrustedName(t *testing.T) {
	store := confessiontest.NewMemStore()
	svc := newTestService(store)

	c, result, err := svc.Submit(context.Background(),
		confession.Sender{UserID: "u1", FullName: "  Maria Garcia ", Instagram: "@maria.g"},
		confession.Submission{Vibe: "Coffee_Date", Message: sampleMessage},
	)
	require.NoError(t, err)
	require.True(t, result.Valid)

	assert.Equal(t, "Maria Garcia", c.SenderName)
	assert.Equal(t, "maria.g", c.SenderInstagram)
	assert.Equal(t, confession.VibeCoffeeDate, c.Vibe)
	assert.Equal(t, confession.StatusPending, c.Status)
	assert.Equal(t, 100, c.ValidationScore)
	assert.False(t, c.FlaggedForReview)
	assert.Equal(t, confession.VerificationSkipped, c.VerificationStatus)
	assert.Equal(t, 1, c.Number)
}

func TestSubmitFlagsLowConfidenceName(t *testing.T) {
	svc := newTestService(confessiontest.NewMemStore())

	c, result, err := svc.Submit(context.Background(),
		confession.Sender{UserID: "u1", FullName: "Ziiiig Marlo"},
		confession.Submission{Vibe: "dinner", Message: sampleMessage},
	)
	require.NoError(t, err)
	require.Equal(t, 60, result.Confidence)
	assert.Equal(t, 60, c.ValidationScore)
	assert.True(t, c.FlaggedForReview)
	assert.Equal(t, confession.VerificationPending, c.VerificationStatus)
}

func TestSubmitRejectsInvalidName(t *testing.T) {
	store := confessiontest.NewMemStore()
	svc := newTestService(store)

	_, result, err := svc.Submit(context.Background(),
		confession.Sender{UserID: "u1", FullName: "John Doe"},
		confession.Submission{Vibe: "dinner", Message: sampleMessage},
	)
	var rejected *confession.NameRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "This name is not allowed", rejected.Error())
	assert.False(t, result.Valid)
	assert.Zero(t, store.Len())
}

func TestSubmitRejectsInvalidNameWithoutErrors(t *testing.T) {
	_, _, err := newTestService(confessiontest.NewMemStore()).Submit(context.Background(),
		confession.Sender{UserID: "u1", FullName: "admin useeeer"},
		confession.Submission{Vibe: "dinner", Message: sampleMessage},
	)
	var rejected *confession.NameRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "name rejected", rejected.Error())
}

func TestSubmitValidatesVibeAndMessageFirst(t *testing.T) {
	svc := newTestService(confessiontest.NewMemStore())

	_, _, err := svc.Submit(context.Background(), confession.Sender{FullName: "John Doe"}, confession.Submission{Vibe: "brunch", Message: sampleMessage})
	require.ErrorIs(t, err, confession.ErrInvalidVibe)

	_, _, err = svc.Submit(context.Background(), confession.Sender{FullName: "Maria Garcia"}, confession.Submission{Vibe: "dinner", Message: "<b></b>"})
	require.ErrorIs(t, err, safety.ErrEmpty)
	var messageErr *confession.MessageError
	require.ErrorAs(t, err, &messageErr)

	_, _, err = svc.Submit(context.Background(), confession.Sender{FullName: "Maria Garcia"}, confession.Submission{Vibe: "dinner", Message: "too short"})
	require.EqualError(t, err, "message must be at least 20 characters")
}

func TestSubmitUsesCustomValidator(t *testing.T) {
	v, err := namecheck.New(namecheck.Lists{Blacklist: []string{"maria garcia"}})
	require.NoError(t, err)
	svc := confession.NewService(confessiontest.NewMemStore(), v, confession.Options{})

	_, _, err = svc.Submit(context.Background(), confession.Sender{FullName: "Maria Garcia"}, confession.Submission{Vibe: "dinner", Message: sampleMessage})
	var rejected *confession.NameRejectedError
	require.ErrorAs(t, err, &rejected)
}

func TestReviewTransitions(t *testing.T) {
	ctx := context.Background()
	store := confessiontest.NewMemStore()
	svc := newTestService(store)

	c, _, err := svc.Submit(ctx, confession.Sender{UserID: "u1", FullName: "Maria Garcia"}, confession.Submission{Vibe: "the_one", Message: sampleMessage})
	require.NoError(t, err)

	_, err = svc.MarkPosted(ctx, c.ID, "https://instagram.com/p/x")
	require.ErrorIs(t, err, confession.ErrInvalidTransition)

	approved, err := svc.Review(ctx, c.ID, confession.ActionApprove, confession.ReviewInput{Notes: " <i>sweet</i> "})
	require.NoError(t, err)
	assert.Equal(t, confession.StatusApproved, approved.Status)
	assert.Equal(t, "sweet", approved.AdminNotes)

	posted, err := svc.Review(ctx, c.ID, confession.ActionPost, confession.ReviewInput{InstagramPostURL: " https://instagram.com/p/x "})
	require.NoError(t, err)
	assert.Equal(t, confession.StatusPosted, posted.Status)
	assert.True(t, posted.PostedToInstagram)
	assert.Equal(t, "https://instagram.com/p/x", posted.InstagramPostURL)
	require.NotNil(t, posted.PostedAt)

	_, err = svc.Reject(ctx, c.ID, "too late")
	require.ErrorIs(t, err, confession.ErrInvalidTransition)

	_, err = svc.Approve(ctx, "missing", "")
	require.ErrorIs(t, err, confession.ErrNotFound)

	_, err = svc.Review(ctx, c.ID, confession.Action("delete"), confession.ReviewInput{})
	require.Error(t, err)
}

func TestRejectNotesTooLong(t *testing.T) {
	ctx := context.Background()
	svc := confession.NewService(confessiontest.NewMemStore(), nil, confession.Options{AdminNotesMaxLen: 5})
	c, _, err := svc.Submit(ctx, confession.Sender{UserID: "u1", FullName: "Maria Garcia"}, confession.Submission{Vibe: "dinner", Message: sampleMessage})
	require.NoError(t, err)

	_, err = svc.Reject(ctx, c.ID, "far too long")
	require.ErrorIs(t, err, confession.ErrNotesTooLong)
	require.ErrorContains(t, err, "max 5")
}

func TestSubmitRejectsBlockedSender(t *testing.T) {
	store := confessiontest.NewMemStore()
	svc := newTestService(store)

	_, _, err := svc.Submit(context.Background(),
		confession.Sender{UserID: "u1", FullName: "Maria Garcia", Blocked: true},
		confession.Submission{Vibe: "dinner", Message: sampleMessage},
	)
	require.ErrorIs(t, err, confession.ErrSenderBlocked)
	assert.Zero(t, store.Len())
}

func TestUpdateNotes(t *testing.T) {
	ctx := context.Background()
	svc := confession.NewService(confessiontest.NewMemStore(), nil, confession.Options{AdminNotesMaxLen: 12})
	c, _, err := svc.Submit(ctx, confession.Sender{UserID: "u1", FullName: "Maria Garcia"}, confession.Submission{Vibe: "dinner", Message: sampleMessage})
	require.NoError(t, err)

	updated, err := svc.UpdateNotes(ctx, c.ID, "  <i>call</i>   back ")
	require.NoError(t, err)
	assert.Equal(t, "call back", updated.AdminNotes)
	assert.Equal(t, confession.StatusPending, updated.Status)

	_, err = svc.UpdateNotes(ctx, c.ID, "this is far too long")
	require.ErrorIs(t, err, confession.ErrNotesTooLong)

	cleared, err := svc.UpdateNotes(ctx, c.ID, "")
	require.NoError(t, err)
	assert.Empty(t, cleared.AdminNotes)

	_, err = svc.UpdateNotes(ctx, "missing", "hi")
	require.ErrorIs(t, err, confession.ErrNotFound)
}

type racingStore struct {
	*confessiontest.MemStore
}

func (r racingStore) UpdateStatus(context.Context, string, confession.StatusChange) (confession.Confession, error) {
	return confession.Confession{}, confession.ErrInvalidTransition
}

func TestTransitionLostRace(t *testing.T) {
	ctx := context.Background()
	store := confessiontest.NewMemStore()
	svc := newTestService(racingStore{store})
	c, _, err := svc.Submit(ctx, confession.Sender{UserID: "u1", FullName: "Maria Garcia"}, confession.Submission{Vibe: "dinner", Message: sampleMessage})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, c.ID, "")
	require.True(t, errors.Is(err, confession.ErrInvalidTransition))
}

func TestPublicViews(t *testing.T) {
	ctx := context.Background()
	store := confessiontest.NewMemStore()
	svc := newTestService(store)

	posted, _, err := svc.Submit(ctx, confession.Sender{UserID: "u1", FullName: "Ziiiig Marlo"}, confession.Submission{Vibe: "adventure", Message: sampleMessage})
	require.NoError(t, err)
	pending, _, err := svc.Submit(ctx, confession.Sender{UserID: "u2", FullName: "Maria Garcia"}, confession.Submission{Vibe: "dinner", Message: sampleMessage})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, posted.ID, "ok")
	require.NoError(t, err)
	_, err = svc.MarkPosted(ctx, posted.ID, "")
	require.NoError(t, err)

	got, err := svc.GetPublic(ctx, posted.ID)
	require.NoError(t, err)
	assert.Empty(t, got.SenderID)
	assert.Empty(t, got.AdminNotes)
	assert.False(t, got.FlaggedForReview)
	assert.Equal(t, "Ziiiig Marlo", got.SenderName)

	_, err = svc.GetPublic(ctx, pending.ID)
	require.ErrorIs(t, err, confession.ErrNotPublic)

	items, err := svc.ListPublic(ctx, "adventure", 0, -3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].SenderID)

	items, err = svc.ListPublic(ctx, "dinner", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.ListPublic(ctx, "brunch", 10, 0)
	require.ErrorIs(t, err, confession.ErrInvalidVibe)

	mine, err := svc.ListMine(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, pending.ID, mine[0].ID)

	flagged := true
	queue, err := svc.ListForAdmin(ctx, confession.AdminFilter{Flagged: &flagged})
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, posted.ID, queue[0].ID)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, confession.Stats{Total: 2, Pending: 1, Posted: 1, Flagged: 1}, stats)
}

func TestStatusAndVibeParsing(t *testing.T) {
	s, ok := confession.ParseStatus(" Posted ")
	require.True(t, ok)
	assert.Equal(t, confession.StatusPosted, s)
	_, ok = confession.ParseStatus("archived")
	assert.False(t, ok)

	assert.True(t, confession.CanTransition(confession.StatusPending, confession.StatusRejected))
	assert.False(t, confession.CanTransition(confession.StatusPending, confession.StatusPosted))
	assert.False(t, confession.CanTransition(confession.StatusRejected, confession.StatusApproved))
	assert.False(t, confession.CanTransition(confession.StatusPosted, confession.StatusRejected))

	assert.Equal(t, "Study Session", confession.VibeStudySession.Label())
	assert.Len(t, confession.Vibes(), 6)
}
