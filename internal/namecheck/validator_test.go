package namecheck

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsPlainNames(t *testing.T) {
	for _, name := range []string{"Maria Garcia", "Jean-Luc Picard", "Shaun O'Neill", "  Ada Lovelace  "} {
		t.Run(name, func(t *testing.T) {
			got := Validate(name)
			require.True(t, got.Valid, "errors=%v warnings=%v", got.Errors, got.Warnings)
			require.Empty(t, got.Errors)
			require.Empty(t, got.Warnings)
			require.Equal(t, 100, got.Confidence)
		})
	}
}

func TestValidateLengthBounds(t *testing.T) {
	cases := []struct {
		name string
		in   string
		msg  string
	}{
		{name: "empty", in: "", msg: msgTooShort},
		{name: "two chars", in: "Al", msg: msgTooShort},
		{name: "padded short", in: "   Jo   ", msg: msgTooShort},
		{name: "too long", in: "Bartholomew " + strings.Repeat("Featherstonehaugh", 3), msg: msgTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(tc.in)
			require.False(t, got.Valid)
			require.Equal(t, 0, got.Confidence)
			require.Equal(t, []string{tc.msg}, got.Errors)
		})
	}
}

func TestValidateRejectsDisallowedCharacters(t *testing.T) {
	for _, name := range []string{"john123", "123john", "Anna.Smith", "Zoë Brown", "Mary_Jane Doe", "Li\tWei", "Ann Lee!"} {
		t.Run(name, func(t *testing.T) {
			got := Validate(name)
			require.False(t, got.Valid)
			require.Equal(t, 0, got.Confidence)
			require.Contains(t, got.Errors, msgBadCharacters)
			require.Empty(t, got.Warnings, "character-set failure must short-circuit before pattern warnings")
		})
	}
}

func TestValidateKeepsEarlierErrorsOnShortCircuit(t *testing.T) {
	got := Validate("john123")
	require.Equal(t, []string{msgNeedSurname, msgBadCharacters}, got.Errors)
	assert.Equal(t, msgNeedSurname, got.Primary())
}

func TestValidateBlacklistIsExactAndCaseInsensitive(t *testing.T) {
	for _, name := range []string{"John Doe", "JOHN DOE", "jane doe", "Mickey Mouse", "  Donald Duck "} {
		got := Validate(name)
		require.False(t, got.Valid, name)
		require.Equal(t, 0, got.Confidence, name)
		require.Equal(t, msgBlacklisted, got.Errors[len(got.Errors)-1], name)
	}

	// Only the whole string is compared, so "test user" falls through to scoring.
	got := Validate("test user")
	require.NotContains(t, got.Errors, msgBlacklisted)
	require.Contains(t, got.Warnings, warnFakePattern)
	require.Contains(t, got.Warnings, warnCapitalization)
	require.False(t, got.Valid)
	require.Equal(t, 30, got.Confidence)
}

func TestValidateRejectsProfanitySubstring(t *testing.T) {
	for _, name := range []string{"Shitty Name", "Dickens Cole", "Hello Kitty", "Bass Player"} {
		got := Validate(name)
		require.False(t, got.Valid, name)
		require.Equal(t, 0, got.Confidence, name)
		require.Contains(t, got.Errors, msgProfanity, name)
	}
}

func TestValidateAllSameLetter(t *testing.T) {
	got := Validate("AAAA BBBB")
	require.False(t, got.Valid)
	require.Equal(t, 0, got.Confidence)
	require.Equal(t, []string{msgAllSameLetter}, got.Errors)
	require.Equal(t, []string{warnRepeating}, got.Warnings)

	got = Validate("Aaa Bbb")
	require.False(t, got.Valid)
	require.Equal(t, []string{msgAllSameLetter}, got.Errors)
}

func TestValidateSoftChecks(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		warnings   []string
		errors     []string
		confidence int
		valid      bool
	}{
		{
			name:       "single name",
			in:         "Madonna",
			errors:     []string{msgNeedSurname},
			warnings:   []string{},
			confidence: 50,
		},
		{
			name:       "short part",
			in:         "Jo A Smith",
			errors:     []string{msgShortPart},
			warnings:   []string{},
			confidence: 70,
		},
		{
			name:       "lowercase",
			in:         "maria garcia",
			errors:     []string{},
			warnings:   []string{warnCapitalization},
			confidence: 80,
			valid:      true,
		},
		{
			name:       "too many parts",
			in:         "Ana Maria Luisa Sofia Garcia",
			errors:     []string{},
			warnings:   []string{warnManyParts},
			confidence: 80,
			valid:      true,
		},
		{
			name:       "repeating run",
			in:         "Ziiiig Marlo",
			errors:     []string{},
			warnings:   []string{warnRepeating},
			confidence: 60,
			valid:      true,
		},
		{
			name:       "fake pattern substring",
			in:         "Celeste Testa",
			errors:     []string{},
			warnings:   []string{warnFakePattern},
			confidence: 50,
			valid:      true,
		},
		{
			name:       "no vowels",
			in:         "Brynn Glyn",
			errors:     []string{},
			warnings:   []string{warnLetterPattern},
			confidence: 70,
			valid:      true,
		},
		{
			name:       "stacked warnings clamp at zero",
			in:         "admin useeeer",
			errors:     []string{},
			warnings:   []string{warnRepeating, warnFakePattern, warnCapitalization},
			confidence: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(tc.in)
			assert.Equal(t, tc.errors, got.Errors)
			assert.Equal(t, tc.warnings, got.Warnings)
			assert.Equal(t, tc.confidence, got.Confidence)
			assert.Equal(t, tc.valid, got.Valid)
		})
	}
}

func TestCapitalizationIgnoresLeadingPunctuation(t *testing.T) {
	for _, name := range []string{"-Ann Lee", "'Ann Lee", "Ann -Lee"} {
		got := Validate(name)
		require.True(t, got.Valid, name)
		require.NotContains(t, got.Warnings, warnCapitalization, name)
		require.Equal(t, 100, got.Confidence, name)
	}

	got := Validate("ann Lee")
	require.Contains(t, got.Warnings, warnCapitalization)
	require.Equal(t, 80, got.Confidence)
}

func TestValidateFailsOnAccumulatedWarningsAlone(t *testing.T) {
	got := Validate("celeste testa")
	require.Empty(t, got.Errors)
	require.Equal(t, 30, got.Confidence)
	require.False(t, got.Valid)
}

func TestValidateInvariantsHoldForArbitraryInput(t *testing.T) {
	inputs := []string{
		"", " ", "a", "ab c", "Ab Cd", "x y z w v u", "Q'x Zz", "--- ---", "'' ''",
		"AbCdEfGhIjKlMnOpQrStUvWxYz AbCdEfGhIjKlMnOpQr", "Mary-Kate Olsen",
		"test123", "user user user user user", "Aaaa Aaaa", "hellish", "ééé éé",
		strings.Repeat("Ab ", 20), "Rhythm Crypt", "Eeee Oooo", "Io Ua",
	}
	for _, in := range inputs {
		got := Validate(in)
		require.GreaterOrEqual(t, got.Confidence, 0, in)
		require.LessOrEqual(t, got.Confidence, 100, in)
		if len(got.Errors) > 0 {
			require.False(t, got.Valid, in)
		}
		if got.Valid {
			require.GreaterOrEqual(t, got.Confidence, PassThreshold, in)
		}
		require.NotNil(t, got.Errors, in)
		require.NotNil(t, got.Warnings, in)
		require.Equal(t, got, Validate(in), "validate must be deterministic for %q", in)
	}
}

func TestValidateConcurrentUse(t *testing.T) {
	v := Default()
	want := v.Validate("Maria Garcia")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if got := v.Validate("Maria Garcia"); got.Confidence != want.Confidence || got.Valid != want.Valid {
					t.Errorf("unexpected result %+v", got)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestNewWithCustomLists(t *testing.T) {
	v, err := New(Lists{
		Blacklist:    []string{"  Maria Garcia "},
		Profanity:    []string{"darn"},
		FakePatterns: []string{`(?i)^bob`},
	})
	require.NoError(t, err)

	require.Equal(t, []string{msgBlacklisted}, v.Validate("maria garcia").Errors)
	require.Equal(t, []string{msgProfanity}, v.Validate("Darnell Hayes").Errors)
	require.Equal(t, []string{warnFakePattern}, v.Validate("Bobby Tables").Warnings)

	// Names only the default tables reject are fine here.
	require.True(t, v.Validate("John Doe").Valid)
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New(Lists{FakePatterns: []string{"("}})
	require.Error(t, err)
	require.Panics(t, func() { MustNew(Lists{FakePatterns: []string{"("}}) })
}

func TestFlaggedForReview(t *testing.T) {
	assert.False(t, FlaggedForReview(Result{Confidence: 100}))
	assert.False(t, FlaggedForReview(Result{Confidence: 70}))
	assert.True(t, FlaggedForReview(Result{Confidence: 69}))
	assert.True(t, FlaggedForReview(Validate("Celeste Testa")))
}

func TestPrimary(t *testing.T) {
	assert.Equal(t, "", Result{Errors: []string{}}.Primary())
	assert.Equal(t, msgTooShort, Validate("ab").Primary())
}
