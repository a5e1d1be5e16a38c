package namecheck

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	verdict Verdict
	err     error
	panics  bool
}

func (s stubChecker) CheckName(context.Context, string) (Verdict, error) {
	if s.panics {
		panic("provider exploded")
	}
	return s.verdict, s.err
}

func TestValidateWithAPIFailsOpen(t *testing.T) {
	ctx := context.Background()

	got, err := ValidateWithAPI(ctx, nil, "Maria Garcia")
	require.NoError(t, err)
	require.Equal(t, PermissiveVerdict, got)

	got, err = ValidateWithAPI(ctx, stubChecker{err: errors.New("timeout")}, "Maria Garcia")
	require.Error(t, err)
	require.Equal(t, FallbackVerdict, got)

	got, err = ValidateWithAPI(ctx, stubChecker{panics: true}, "Maria Garcia")
	require.ErrorContains(t, err, "panicked")
	require.Equal(t, FallbackVerdict, got)
}

func TestValidateWithAPIClampsConfidence(t *testing.T) {
	got, err := ValidateWithAPI(context.Background(), stubChecker{verdict: Verdict{IsReal: false, Confidence: 140}}, "x")
	require.NoError(t, err)
	require.Equal(t, Verdict{IsReal: false, Confidence: 100}, got)

	got, _ = ValidateWithAPI(context.Background(), stubChecker{verdict: Verdict{IsReal: true, Confidence: -3}}, "x")
	require.Equal(t, 0, got.Confidence)
}
