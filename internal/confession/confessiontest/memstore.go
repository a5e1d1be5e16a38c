// Package confessiontest provides an in-memory confession.Store for tests.
package confessiontest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"confessions/backend/internal/confession"
)

var _ confession.Store = (*MemStore)(nil)

type MemStore struct {
	mu   sync.Mutex
	seq  int
	rows map[string]confession.Confession
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{rows: map[string]confession.Confession{}}
}

func (m *MemStore) Create(_ context.Context, c *confession.Confession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	c.ID = fmt.Sprintf("00000000-0000-4000-8000-%012d", m.seq)
	c.Number = m.seq
	c.Status = confession.StatusPending
	c.VerificationStatus = confession.VerificationSkipped
	if c.FlaggedForReview {
		c.VerificationStatus = confession.VerificationPending
	}
	c.CreatedAt = time.Now()
	m.rows[c.ID] = *c
	return nil
}

func (m *MemStore) Get(_ context.Context, id string) (confession.Confession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return confession.Confession{}, confession.ErrNotFound
	}
	return c, nil
}

func (m *MemStore) list(keep func(confession.Confession) bool) []confession.Confession {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []confession.Confession{}
	for _, c := range m.rows {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (m *MemStore) ListPublic(_ context.Context, vibe confession.Vibe, limit, offset int) ([]confession.Confession, error) {
	out := m.list(func(c confession.Confession) bool {
		return c.Status == confession.StatusPosted && (vibe == "" || c.Vibe == vibe)
	})
	if offset >= len(out) {
		return []confession.Confession{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) ListBySender(_ context.Context, senderID string) ([]confession.Confession, error) {
	return m.list(func(c confession.Confession) bool { return c.SenderID == senderID }), nil
}

func (m *MemStore) ListForAdmin(_ context.Context, filter confession.AdminFilter) ([]confession.Confession, error) {
	return m.list(func(c confession.Confession) bool {
		if filter.Status != "" && c.Status != filter.Status {
			return false
		}
		return filter.Flagged == nil || c.FlaggedForReview == *filter.Flagged
	}), nil
}

func (m *MemStore) UpdateStatus(_ context.Context, id string, change confession.StatusChange) (confession.Confession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return confession.Confession{}, confession.ErrNotFound
	}
	if c.Status != change.From {
		return confession.Confession{}, confession.ErrInvalidTransition
	}
	c.Status = change.To
	if change.AdminNotes != nil {
		c.AdminNotes = *change.AdminNotes
	}
	if change.To == confession.StatusPosted {
		now := time.Now()
		c.PostedAt = &now
		c.PostedToInstagram = true
		c.InstagramPostURL = change.InstagramPostURL
	}
	m.rows[id] = c
	return c, nil
}

func (m *MemStore) UpdateNotes(_ context.Context, id, notes string) (confession.Confession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return confession.Confession{}, confession.ErrNotFound
	}
	c.AdminNotes = notes
	m.rows[id] = c
	return c, nil
}

func (m *MemStore) Stats(context.Context) (confession.Stats, error) {
	var stats confession.Stats
	for _, c := range m.list(func(confession.Confession) bool { return true }) {
		stats.Total++
		switch c.Status {
		case confession.StatusPending:
			stats.Pending++
		case confession.StatusApproved:
			stats.Approved++
		case confession.StatusRejected:
			stats.Rejected++
		case confession.StatusPosted:
			stats.Posted++
		}
		if c.FlaggedForReview {
			stats.Flagged++
		}
		if c.VerificationStatus == confession.VerificationSuspect {
			stats.Suspect++
		}
	}
	return stats, nil
}

func (m *MemStore) ClaimUnverified(context.Context) (confession.Confession, bool, error) {
	pending := m.list(func(c confession.Confession) bool { return c.VerificationStatus == confession.VerificationPending })
	if len(pending) == 0 {
		return confession.Confession{}, false, nil
	}
	return pending[0], true, nil
}

func (m *MemStore) RecordVerification(_ context.Context, id string, status confession.VerificationStatus, confidence int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return confession.ErrNotFound
	}
	c.VerificationStatus = status
	c.APIConfidence = &confidence
	m.rows[id] = c
	return nil
}

// Len reports how many confessions are stored.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// Put stores c as-is, replacing any row with the same ID.
func (m *MemStore) Put(c confession.Confession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[c.ID] = c
}
