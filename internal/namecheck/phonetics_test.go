package namecheck

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckPhonetics(t *testing.T) {
	cases := map[string]bool{
		"Qx":           false,
		"Maria":        true,
		"Iraq Qasim":   true,
		"Vladimir":     true,
		"Bxxa":         false,
		"Javier Cvek":  false,
		"Nguyen Thanh": true,
	}
	for name, want := range cases {
		require.Equal(t, want, CheckPhonetics(name), name)
	}
}

func TestCheckPhoneticsDoesNotAffectScore(t *testing.T) {
	got := Validate("Javier Cvek")
	require.True(t, got.Valid)
	require.Equal(t, 100, got.Confidence)
}
