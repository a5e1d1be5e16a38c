package api

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var instagramHandleRegex = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)

func validateUUID(value, fieldName string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("%s is required", fieldName)
	}
	parsed, err := uuid.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("%s is invalid", fieldName)
	}
	return parsed.String(), nil
}

func validateEmail(value string) (string, error) {
	clean := strings.ToLower(strings.TrimSpace(value))
	addr, err := mail.ParseAddress(clean)
	if err != nil || addr.Address != clean {
		return "", fmt.Errorf("email is invalid")
	}
	return clean, nil
}

// validateInstagram accepts an optional handle with or without the leading @.
func validateInstagram(value string) (string, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(value), "@")
	if clean == "" {
		return "", nil
	}
	if !instagramHandleRegex.MatchString(clean) {
		return "", fmt.Errorf("instagram username is invalid")
	}
	return strings.ToLower(clean), nil
}

func validatePostURL(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", nil
	}
	parsed, err := url.Parse(clean)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return "", fmt.Errorf("instagram_post_url must be an https URL")
	}
	return clean, nil
}

func parsePaginationLimit(raw string, defaultValue, minValue, maxValue int) (int, error) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(clean)
	if err != nil {
		return 0, fmt.Errorf("limit must be a number")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("limit must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}

func parseOffset(raw string) (int, error) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(clean)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("offset must be a non-negative number")
	}
	return value, nil
}

func parseOptionalBool(raw, fieldName string) (*bool, error) {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(clean)
	if err != nil {
		return nil, fmt.Errorf("%s must be true or false", fieldName)
	}
	return &value, nil
}
