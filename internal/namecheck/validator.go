// Package namecheck scores human-entered display names.
//
// Validate runs an ordered set of checks. Some are hard disqualifiers that return
// immediately with confidence 0 (character set, blacklist, profanity, all-same-letter
// parts); the rest only erode a confidence budget that starts at 100. Callers use
// Result.Valid to reject and Result.Confidence to decide on manual review.
package namecheck

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

const (
	MinLength = 3
	MaxLength = 50

	// PassThreshold is the minimum confidence a name without errors needs to be valid.
	PassThreshold = 50
	// ReviewThreshold is the confidence below which accepted content is flagged for review.
	ReviewThreshold = 70

	maxParts      = 4
	repeatRunSize = 4
	minRatio      = 0.2
	maxRatio      = 5.0
)

const (
	msgTooShort      = "Name must be at least 3 characters"
	msgTooLong       = "Name is too long (max 50 characters)"
	msgNeedSurname   = "Please enter both first and last name"
	msgShortPart     = "Each part of name must be at least 2 characters"
	msgBadCharacters = "Name can only contain letters, spaces, hyphens, and apostrophes"
	msgBlacklisted   = "This name is not allowed"
	msgProfanity     = "Name contains inappropriate language"
	msgAllSameLetter = "Name appears fake (all same letters)"

	warnRepeating      = "Name has suspicious repeating characters"
	warnFakePattern    = "Name appears to follow a fake pattern"
	warnCapitalization = "Name should have proper capitalization"
	warnManyParts      = "Name has unusually many parts"
	warnLetterPattern  = "Name has unusual letter patterns"
)

// Result is the verdict for a single name.
type Result struct {
	Valid      bool     `json:"is_valid"`
	Errors     []string `json:"errors"`
	Warnings   []string `json:"warnings"`
	Confidence int      `json:"confidence"`
}

// Primary returns the user-facing rejection message, or "" when there are no errors.
func (r Result) Primary() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0]
}

// FlaggedForReview reports whether content accepted with r should be inspected by an admin.
func FlaggedForReview(r Result) bool {
	return r.Confidence < ReviewThreshold
}

// Validator is immutable once built and safe for concurrent use.
type Validator struct {
	blacklist    map[string]struct{}
	profanity    []string
	fakePatterns []*regexp.Regexp
	bigrams      []string
}

// New builds a Validator from lists. Entries are trimmed and lowercased; empty entries
// are dropped. It fails only when a fake pattern does not compile.
func New(lists Lists) (*Validator, error) {
	v := &Validator{
		blacklist: make(map[string]struct{}, len(lists.Blacklist)),
		bigrams:   strings.Fields(impossibleBigrams),
	}
	for _, entry := range lists.Blacklist {
		clean := strings.ToLower(strings.TrimSpace(entry))
		if clean == "" {
			continue
		}
		v.blacklist[clean] = struct{}{}
	}
	for _, word := range lists.Profanity {
		clean := strings.ToLower(strings.TrimSpace(word))
		if clean == "" {
			continue
		}
		v.profanity = append(v.profanity, clean)
	}
	for _, pattern := range lists.FakePatterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile fake pattern %q: %w", pattern, err)
		}
		v.fakePatterns = append(v.fakePatterns, re)
	}
	return v, nil
}

// MustNew is like New but panics on an invalid pattern.
func MustNew(lists Lists) *Validator {
	v, err := New(lists)
	if err != nil {
		panic(err)
	}
	return v
}

var defaultValidator = sync.OnceValue(func() *Validator {
	return MustNew(DefaultLists())
})

// Default returns the shared Validator built from DefaultLists.
func Default() *Validator {
	return defaultValidator()
}

// Validate checks name with the default reference tables.
func Validate(name string) Result {
	return Default().Validate(name)
}

// Validate never fails; every rejection is reported through the Result.
func (v *Validator) Validate(name string) Result {
	errs := []string{}
	warnings := []string{}
	confidence := 100

	reject := func(msg string) Result {
		return Result{Valid: false, Errors: append(errs, msg), Warnings: warnings, Confidence: 0}
	}

	trimmed := strings.TrimSpace(name)
	length := utf8.RuneCountInString(trimmed)
	if length < MinLength {
		return reject(msgTooShort)
	}
	if length > MaxLength {
		return reject(msgTooLong)
	}

	parts := strings.Fields(trimmed)
	if len(parts) < 2 {
		errs = append(errs, msgNeedSurname)
		confidence -= 50
	}
	for _, part := range parts {
		if utf8.RuneCountInString(part) < 2 {
			errs = append(errs, msgShortPart)
			confidence -= 30
			break
		}
	}

	if !hasAllowedCharacters(trimmed) {
		return reject(msgBadCharacters)
	}

	lower := strings.ToLower(trimmed)
	if _, blocked := v.blacklist[lower]; blocked {
		return reject(msgBlacklisted)
	}
	for _, word := range v.profanity {
		if strings.Contains(lower, word) {
			return reject(msgProfanity)
		}
	}

	if hasRepeatRun(trimmed, repeatRunSize) {
		warnings = append(warnings, warnRepeating)
		confidence -= 40
	}

	for _, re := range v.fakePatterns {
		if re.MatchString(trimmed) {
			warnings = append(warnings, warnFakePattern)
			confidence -= 50
			break
		}
	}

	if !properlyCapitalized(parts) {
		warnings = append(warnings, warnCapitalization)
		confidence -= 20
	}

	if len(parts) > maxParts {
		warnings = append(warnings, warnManyParts)
		confidence -= 20
	}

	if allPartsSameLetter(parts) {
		return reject(msgAllSameLetter)
	}

	if !balancedLetters(trimmed) {
		warnings = append(warnings, warnLetterPattern)
		confidence -= 30
	}

	if confidence < 0 {
		confidence = 0
	}
	return Result{
		Valid:      len(errs) == 0 && confidence >= PassThreshold,
		Errors:     errs,
		Warnings:   warnings,
		Confidence: confidence,
	}
}

// Only ASCII letters, space, hyphen and apostrophe.
func hasAllowedCharacters(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == ' ', r == '-', r == '\'':
		default:
			return false
		}
	}
	return true
}

// Case-sensitive: "Aaaa" is not a run.
func hasRepeatRun(s string, size int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if run > 0 && r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= size {
			return true
		}
	}
	return false
}

// A part fails only when it starts with a lowercase letter; a leading hyphen or
// apostrophe passes.
func properlyCapitalized(parts []string) bool {
	for _, part := range parts {
		first, _ := utf8.DecodeRuneInString(part)
		if unicode.ToUpper(first) != first {
			return false
		}
	}
	return true
}

func allPartsSameLetter(parts []string) bool {
	for _, part := range parts {
		first, _ := utf8.DecodeRuneInString(part)
		first = unicode.ToLower(first)
		for _, r := range part {
			if unicode.ToLower(r) != first {
				return false
			}
		}
	}
	return true
}

func balancedLetters(s string) bool {
	vowels, consonants := 0, 0
	for _, r := range strings.ToLower(s) {
		if r < 'a' || r > 'z' {
			continue
		}
		switch r {
		case 'a', 'e', 'i', 'o', 'u':
			vowels++
		default:
			consonants++
		}
	}
	if vowels == 0 {
		return false
	}
	ratio := float64(consonants) / float64(vowels)
	return ratio >= minRatio && ratio <= maxRatio
}
