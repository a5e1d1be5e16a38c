package namecheck

import (
	"context"
	"fmt"
)

// Verdict is the answer of an external name-verification provider.
type Verdict struct {
	IsReal     bool `json:"is_real"`
	Confidence int  `json:"confidence"`
}

// Checker delegates name verification to an external provider.
type Checker interface {
	CheckName(ctx context.Context, name string) (Verdict, error)
}

var (
	// PermissiveVerdict is returned when no provider is configured.
	PermissiveVerdict = Verdict{IsReal: true, Confidence: 100}
	// FallbackVerdict is returned when the provider fails. The check fails open.
	FallbackVerdict = Verdict{IsReal: true, Confidence: 50}
)

// ValidateWithAPI asks checker about name. A nil checker yields PermissiveVerdict; any
// error or panic from the checker yields FallbackVerdict together with the cause, which
// callers may log but must not treat as a rejection.
func ValidateWithAPI(ctx context.Context, checker Checker, name string) (verdict Verdict, cause error) {
	if checker == nil {
		return PermissiveVerdict, nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			verdict = FallbackVerdict
			cause = fmt.Errorf("name checker panicked: %v", rec)
		}
	}()

	got, err := checker.CheckName(ctx, name)
	if err != nil {
		return FallbackVerdict, err
	}
	got.Confidence = clampConfidence(got.Confidence)
	return got, nil
}

func clampConfidence(value int) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return value
}
