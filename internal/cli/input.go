package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// resolveNames picks names from positional args, --file, or stdin when neither is given.
// Names keep their original case since capitalization affects the verdict.
func (a *app) resolveNames(positional []string, namesFile string) ([]string, error) {
	trimmed := strings.TrimSpace(namesFile)
	if trimmed != "" {
		if len(positional) > 0 {
			return nil, fmt.Errorf("cannot combine positional names with --file")
		}
		return a.readNamesFile(trimmed)
	}
	if len(positional) == 0 {
		return readNames(a.stdin)
	}

	names := make([]string, 0, len(positional))
	for _, raw := range positional {
		if name := strings.TrimSpace(raw); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one name is required")
	}
	return names, nil
}

func (a *app) readNamesFile(path string) ([]string, error) {
	if path == "-" {
		return readNames(a.stdin)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close() // nolint:errcheck
	return readNames(file)
}

// readNames reads one name per line, skipping blanks and # comments.
func readNames(reader io.Reader) ([]string, error) {
	if reader == nil {
		return nil, fmt.Errorf("at least one name is required")
	}
	names := make([]string, 0)
	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		names = append(names, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read names: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one name is required")
	}
	return names, nil
}
