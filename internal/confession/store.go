package confession

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxVerificationAttempts = 5
	verificationLockTTL     = 5 * time.Minute
)

type Store interface {
	Create(ctx context.Context, c *Confession) error
	Get(ctx context.Context, id string) (Confession, error)
	ListPublic(ctx context.Context, vibe Vibe, limit, offset int) ([]Confession, error)
	ListBySender(ctx context.Context, senderID string) ([]Confession, error)
	ListForAdmin(ctx context.Context, filter AdminFilter) ([]Confession, error)
	UpdateStatus(ctx context.Context, id string, change StatusChange) (Confession, error)
	UpdateNotes(ctx context.Context, id, notes string) (Confession, error)
	Stats(ctx context.Context) (Stats, error)
	ClaimUnverified(ctx context.Context) (Confession, bool, error)
	RecordVerification(ctx context.Context, id string, status VerificationStatus, confidence int) error
}

const confessionColumns = `
	id::text, confession_number, sender_id::text, sender_name, COALESCE(sender_instagram, ''),
	vibe_type, message, status, validation_score, flagged_for_review, COALESCE(admin_notes, ''),
	posted_to_instagram, COALESCE(instagram_post_url, ''), verification_status, api_confidence,
	created_at, posted_at`

type PGStore struct {
	db      *pgxpool.Pool
	observe func(time.Duration)
}

// NewPGStore returns a Store backed by db. observe, when set, receives every query latency.
func NewPGStore(db *pgxpool.Pool, observe func(time.Duration)) *PGStore {
	return &PGStore{db: db, observe: observe}
}

func (s *PGStore) track(startedAt time.Time) {
	if s.observe != nil {
		s.observe(time.Since(startedAt))
	}
}

func (s *PGStore) Create(ctx context.Context, c *Confession) error {
	defer s.track(time.Now())

	verification := VerificationSkipped
	if c.FlaggedForReview {
		verification = VerificationPending
	}
	var status, storedVerification string
	err := s.db.QueryRow(ctx, `
		INSERT INTO confessions(
			sender_id, sender_name, sender_instagram, vibe_type, message,
			validation_score, flagged_for_review, verification_status
		)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		RETURNING id::text, confession_number, status, verification_status, created_at
	`, c.SenderID, c.SenderName, c.SenderInstagram, string(c.Vibe), c.Message,
		c.ValidationScore, c.FlaggedForReview, string(verification),
	).Scan(&c.ID, &c.Number, &status, &storedVerification, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert confession: %w", err)
	}
	c.Status = Status(status)
	c.VerificationStatus = VerificationStatus(storedVerification)
	return nil
}

func (s *PGStore) Get(ctx context.Context, id string) (Confession, error) {
	defer s.track(time.Now())

	row := s.db.QueryRow(ctx, `SELECT `+confessionColumns+` FROM confessions WHERE id = $1`, id)
	c, err := scanConfession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Confession{}, ErrNotFound
		}
		return Confession{}, fmt.Errorf("get confession: %w", err)
	}
	return c, nil
}

func (s *PGStore) ListPublic(ctx context.Context, vibe Vibe, limit, offset int) ([]Confession, error) {
	defer s.track(time.Now())

	rows, err := s.db.Query(ctx, `
		SELECT `+confessionColumns+`
		FROM confessions
		WHERE status = 'posted'
		  AND ($1 = '' OR vibe_type = $1)
		ORDER BY posted_at DESC NULLS LAST, confession_number DESC
		LIMIT $2 OFFSET $3
	`, string(vibe), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list public confessions: %w", err)
	}
	return collectConfessions(rows)
}

func (s *PGStore) ListBySender(ctx context.Context, senderID string) ([]Confession, error) {
	defer s.track(time.Now())

	rows, err := s.db.Query(ctx, `
		SELECT `+confessionColumns+`
		FROM confessions
		WHERE sender_id = $1
		ORDER BY created_at DESC
	`, senderID)
	if err != nil {
		return nil, fmt.Errorf("list sender confessions: %w", err)
	}
	return collectConfessions(rows)
}

func (s *PGStore) ListForAdmin(ctx context.Context, filter AdminFilter) ([]Confession, error) {
	defer s.track(time.Now())

	rows, err := s.db.Query(ctx, `
		SELECT `+confessionColumns+`
		FROM confessions
		WHERE ($1 = '' OR status = $1)
		  AND ($2::boolean IS NULL OR flagged_for_review = $2)
		ORDER BY flagged_for_review DESC, created_at ASC
		LIMIT $3 OFFSET $4
	`, string(filter.Status), filter.Flagged, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list admin confessions: %w", err)
	}
	return collectConfessions(rows)
}

// UpdateStatus applies change only while the row is still in change.From, so two admins
// acting on the same confession cannot both win.
func (s *PGStore) UpdateStatus(ctx context.Context, id string, change StatusChange) (Confession, error) {
	startedAt := time.Now()
	row := s.db.QueryRow(ctx, `
		UPDATE confessions
		SET status = $3,
			admin_notes = COALESCE($4, admin_notes),
			instagram_post_url = CASE WHEN $3 = 'posted' THEN NULLIF($5, '') ELSE instagram_post_url END,
			posted_to_instagram = posted_to_instagram OR $3 = 'posted',
			posted_at = CASE WHEN $3 = 'posted' THEN NOW() ELSE posted_at END,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+confessionColumns,
		id, string(change.From), string(change.To), change.AdminNotes, change.InstagramPostURL)
	c, err := scanConfession(row)
	s.track(startedAt)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Confession{}, fmt.Errorf("update confession status: %w", err)
	}

	if _, getErr := s.Get(ctx, id); getErr != nil {
		return Confession{}, getErr
	}
	return Confession{}, ErrInvalidTransition
}

func (s *PGStore) UpdateNotes(ctx context.Context, id, notes string) (Confession, error) {
	defer s.track(time.Now())

	c, err := scanConfession(s.db.QueryRow(ctx, `
		UPDATE confessions
		SET admin_notes = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING `+confessionColumns, id, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Confession{}, ErrNotFound
		}
		return Confession{}, fmt.Errorf("update confession notes: %w", err)
	}
	return c, nil
}

func (s *PGStore) Stats(ctx context.Context) (Stats, error) {
	defer s.track(time.Now())

	var stats Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*)::int,
			COUNT(*) FILTER (WHERE status = 'pending')::int,
			COUNT(*) FILTER (WHERE status = 'approved')::int,
			COUNT(*) FILTER (WHERE status = 'rejected')::int,
			COUNT(*) FILTER (WHERE status = 'posted')::int,
			COUNT(*) FILTER (WHERE flagged_for_review)::int,
			COUNT(*) FILTER (WHERE verification_status = 'suspect')::int
		FROM confessions
	`).Scan(&stats.Total, &stats.Pending, &stats.Approved, &stats.Rejected, &stats.Posted, &stats.Flagged, &stats.Suspect)
	if err != nil {
		return Stats{}, fmt.Errorf("confession stats: %w", err)
	}
	return stats, nil
}

// ClaimUnverified locks the oldest flagged confession still waiting for an external check.
// A claim expires after verificationLockTTL so a crashed worker does not strand it.
func (s *PGStore) ClaimUnverified(ctx context.Context) (Confession, bool, error) {
	defer s.track(time.Now())

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Confession{}, false, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+confessionColumns+`
		FROM confessions
		WHERE verification_status = 'pending'
		  AND verification_attempts < $1
		  AND (verification_locked_at IS NULL OR verification_locked_at < NOW() - $2::interval)
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, maxVerificationAttempts, verificationLockTTL)
	c, err := scanConfession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Confession{}, false, nil
		}
		return Confession{}, false, fmt.Errorf("claim confession: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE confessions
		SET verification_locked_at = NOW(), verification_attempts = verification_attempts + 1
		WHERE id = $1
	`, c.ID); err != nil {
		return Confession{}, false, fmt.Errorf("lock confession: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Confession{}, false, err
	}
	return c, true, nil
}

func (s *PGStore) RecordVerification(ctx context.Context, id string, status VerificationStatus, confidence int) error {
	defer s.track(time.Now())

	ct, err := s.db.Exec(ctx, `
		UPDATE confessions
		SET verification_status = $2,
			api_confidence = $3,
			verified_at = NOW(),
			verification_locked_at = NULL,
			updated_at = NOW()
		WHERE id = $1
	`, id, string(status), confidence)
	if err != nil {
		return fmt.Errorf("record verification: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectConfessions(rows pgx.Rows) ([]Confession, error) {
	defer rows.Close()

	out := []Confession{}
	for rows.Next() {
		c, err := scanConfession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanConfession(row pgx.Row) (Confession, error) {
	var (
		c            Confession
		vibe         string
		status       string
		verification string
	)
	err := row.Scan(
		&c.ID, &c.Number, &c.SenderID, &c.SenderName, &c.SenderInstagram,
		&vibe, &c.Message, &status, &c.ValidationScore, &c.FlaggedForReview, &c.AdminNotes,
		&c.PostedToInstagram, &c.InstagramPostURL, &verification, &c.APIConfidence,
		&c.CreatedAt, &c.PostedAt,
	)
	if err != nil {
		return Confession{}, err
	}
	c.Vibe = Vibe(strings.TrimSpace(vibe))
	c.Status = Status(strings.TrimSpace(status))
	c.VerificationStatus = VerificationStatus(strings.TrimSpace(verification))
	return c, nil
}
