package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"confessions/backend/internal/confession"
	"confessions/backend/internal/confession/confessiontest"
	"confessions/backend/internal/config"
	"confessions/backend/internal/namecheck"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	calls   atomic.Int32
	verdict namecheck.Verdict
	err     error
}

func (s *stubChecker) CheckName(context.Context, string) (namecheck.Verdict, error) {
	s.calls.Add(1)
	return s.verdict, s.err
}

func seed(t *testing.T, store *confessiontest.MemStore, name string, flagged bool) confession.Confession {
	t.Helper()
	c := confession.Confession{
		SenderID:         "u1",
		SenderName:       name,
		Vibe:             confession.VibeDinner,
		Message:          "You always save me a seat in the back row of stats.",
		ValidationScore:  100,
		FlaggedForReview: flagged,
	}
	require.NoError(t, store.Create(context.Background(), &c))
	return c
}

func testConfig() config.Config {
	return config.Config{WorkerPollEvery: 10 * time.Millisecond, WorkerTaskTimeout: time.Second}
}

func TestProcessOneRecordsSuspect(t *testing.T) {
	store := confessiontest.NewMemStore()
	item := seed(t, store, "Ziiiig Marlo", true)
	checker := &stubChecker{verdict: namecheck.Verdict{IsReal: false, Confidence: 20}}
	w := New(testConfig(), store, checker, nil, nil)

	processed, err := w.processOne(context.Background())
	require.NoError(t, err)
	require.True(t, processed)

	got, err := store.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, confession.VerificationSuspect, got.VerificationStatus)
	require.NotNil(t, got.APIConfidence)
	assert.Equal(t, 20, *got.APIConfidence)

	processed, err = w.processOne(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
	assert.Equal(t, int32(1), checker.calls.Load())
}

func TestProviderFailureFailsOpen(t *testing.T) {
	store := confessiontest.NewMemStore()
	item := seed(t, store, "Ziiiig Marlo", true)
	w := New(testConfig(), store, &stubChecker{err: errors.New("provider down")}, nil, nil)

	processed, err := w.processOne(context.Background())
	require.NoError(t, err)
	require.True(t, processed)

	got, err := store.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, confession.VerificationVerified, got.VerificationStatus)
	assert.Equal(t, namecheck.FallbackVerdict.Confidence, *got.APIConfidence)
	assert.Contains(t, w.metrics.Render(), "verification_provider_failures_total 1")
}

func TestNilCheckerIsPermissive(t *testing.T) {
	store := confessiontest.NewMemStore()
	item := seed(t, store, "Ziiiig Marlo", true)
	w := New(testConfig(), store, nil, nil, nil)

	_, err := w.processOne(context.Background())
	require.NoError(t, err)

	got, err := store.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, confession.VerificationVerified, got.VerificationStatus)
	assert.Equal(t, 100, *got.APIConfidence)
}

func TestRunDrainsQueueAndSkipsTrustedNames(t *testing.T) {
	store := confessiontest.NewMemStore()
	trusted := seed(t, store, "Maria Garcia", false)
	for i := 0; i < 3; i++ {
		seed(t, store, "Ziiiig Marlo", true)
	}
	checker := &stubChecker{verdict: namecheck.Verdict{IsReal: true, Confidence: 90}}
	w := New(testConfig(), store, checker, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return checker.calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	got, err := store.Get(context.Background(), trusted.ID)
	require.NoError(t, err)
	assert.Equal(t, confession.VerificationSkipped, got.VerificationStatus)
	assert.Nil(t, got.APIConfidence)
	assert.Contains(t, w.metrics.Render(), `verifications_processed_total{status="verified"} 3`)
}

func TestObservabilityHandler(t *testing.T) {
	w := New(config.Config{NameVerifyProvider: "http"}, confessiontest.NewMemStore(), nil, nil, nil)
	handler := w.ObservabilityHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"provider":"http"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "verification_duration_seconds")
}
