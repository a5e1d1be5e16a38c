package namecheck

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lists holds the reference tables a Validator is built from.
type Lists struct {
	Blacklist    []string `yaml:"blacklist"`
	Profanity    []string `yaml:"profanity"`
	FakePatterns []string `yaml:"fake_patterns"`
}

// DefaultLists returns a fresh copy of the built-in reference tables.
func DefaultLists() Lists {
	return Lists{
		Blacklist: []string{
			"test", "admin", "administrator", "user", "anonymous",
			"fake", "spam", "bot", "null", "undefined", "none",
			"asdf", "qwerty", "aaaa", "bbbb", "xxxx",
			"john doe", "jane doe", "mickey mouse", "donald duck",
		},
		Profanity: []string{
			"fuck", "shit", "bitch", "ass", "damn", "hell",
			"cunt", "dick", "cock", "pussy",
		},
		FakePatterns: []string{
			`(?i)test\d*`,
			`(?i)user\d*`,
			`(?i)admin\d*`,
			`(?i)^[a-z]+\d+$`,
			`(?i)^\d+[a-z]+$`,
		},
	}
}

// LoadLists reads a YAML file with blacklist, profanity and fake_patterns keys.
// Keys that are absent or empty keep the built-in defaults.
func LoadLists(path string) (Lists, error) {
	lists := DefaultLists()
	if strings.TrimSpace(path) == "" {
		return lists, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Lists{}, fmt.Errorf("read name lists: %w", err)
	}

	var override Lists
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return Lists{}, fmt.Errorf("parse name lists %s: %w", path, err)
	}

	if len(override.Blacklist) > 0 {
		lists.Blacklist = override.Blacklist
	}
	if len(override.Profanity) > 0 {
		lists.Profanity = override.Profanity
	}
	if len(override.FakePatterns) > 0 {
		lists.FakePatterns = override.FakePatterns
	}
	return lists, nil
}
