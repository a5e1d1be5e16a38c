package safety

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	profanityPattern = regexp.MustCompile(`(?i)\b(fuck|shit|bitch|asshole|dick|cunt|pussy)\b`)
	linkPattern      = regexp.MustCompile(`(?i)https?://|www\.`)
	spacePattern     = regexp.MustCompile(`[ \t]+`)

	stripAllPolicy = bluemonday.StrictPolicy()

	ErrEmpty     = errors.New("message cannot be empty")
	ErrProfanity = errors.New("message failed profanity check")
	ErrLinkSpam  = errors.New("message failed link spam check")
)

// ValidateMessage strips markup from message and checks it for length, profanity and
// link spam. It returns the cleaned text that should be stored.
func ValidateMessage(message string, minLen, maxLen int) (string, error) {
	clean := Sanitize(message)
	if clean == "" {
		return "", ErrEmpty
	}
	length := len([]rune(clean))
	if minLen > 0 && length < minLen {
		return "", fmt.Errorf("message must be at least %d characters", minLen)
	}
	if maxLen > 0 && length > maxLen {
		return "", fmt.Errorf("message must be less than %d characters", maxLen)
	}
	if profanityPattern.MatchString(clean) {
		return "", ErrProfanity
	}
	if len(linkPattern.FindAllStringIndex(clean, -1)) > 2 {
		return "", ErrLinkSpam
	}
	return clean, nil
}

// Sanitize removes every HTML element and collapses runs of spaces.
func Sanitize(value string) string {
	stripped := html.UnescapeString(stripAllPolicy.Sanitize(value))
	return strings.TrimSpace(spacePattern.ReplaceAllString(stripped, " "))
}
