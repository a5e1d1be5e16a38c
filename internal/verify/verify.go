// Package verify provides namecheck.Checker implementations for external name
// verification. Callers go through namecheck.ValidateWithAPI, which fails open.
package verify

import (
	"context"
	"strings"

	"confessions/backend/internal/config"
	"confessions/backend/internal/namecheck"
)

// Permissive accepts every name. It is the default when no provider is configured.
type Permissive struct{}

func NewPermissive() *Permissive {
	return &Permissive{}
}

func (p *Permissive) CheckName(_ context.Context, _ string) (namecheck.Verdict, error) {
	return namecheck.PermissiveVerdict, nil
}

func NewFromConfig(cfg config.Config) namecheck.Checker {
	if strings.EqualFold(strings.TrimSpace(cfg.NameVerifyProvider), "http") {
		return NewHTTPChecker(
			cfg.NameVerifyURL,
			cfg.NameVerifyAPIKey,
			cfg.NameVerifyTimeout,
			cfg.NameVerifyMaxRetries,
			cfg.NameVerifyRetryBase,
		)
	}
	return NewPermissive()
}
