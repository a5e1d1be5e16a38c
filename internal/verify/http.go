package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"confessions/backend/internal/namecheck"
)

type HTTPChecker struct {
	endpoint       string
	apiKey         string
	requestTimeout time.Duration
	maxRetries     int
	retryBase      time.Duration
	http           *http.Client
}

func NewHTTPChecker(endpoint, apiKey string, requestTimeout time.Duration, maxRetries int, retryBase time.Duration) *HTTPChecker {
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxRetries > 5 {
		maxRetries = 5
	}
	if retryBase <= 0 {
		retryBase = 200 * time.Millisecond
	}

	return &HTTPChecker{
		endpoint:       strings.TrimSpace(endpoint),
		apiKey:         apiKey,
		requestTimeout: requestTimeout,
		maxRetries:     maxRetries,
		retryBase:      retryBase,
		http: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

func (c *HTTPChecker) CheckName(ctx context.Context, name string) (namecheck.Verdict, error) {
	if c.endpoint == "" {
		return namecheck.Verdict{}, errors.New("NAME_VERIFY_URL is required for http provider")
	}
	ctx, cancel := contextWithDefaultTimeout(ctx, c.requestTimeout)
	defer cancel()

	jsonBody, err := json.Marshal(map[string]string{"name": strings.TrimSpace(name)})
	if err != nil {
		return namecheck.Verdict{}, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
		if err != nil {
			return namecheck.Verdict{}, err
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		verdict, retryable, err := c.checkOnce(req)
		if err == nil {
			return verdict, nil
		}
		lastErr = err
		if !retryable || attempt >= c.maxRetries {
			break
		}

		timer := time.NewTimer(retryDelay(c.retryBase, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return namecheck.Verdict{}, ctx.Err()
		case <-timer.C:
		}
	}
	return namecheck.Verdict{}, lastErr
}

func (c *HTTPChecker) checkOnce(req *http.Request) (namecheck.Verdict, bool, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return namecheck.Verdict{}, false, err
		}
		return namecheck.Verdict{}, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodySnippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		message := strings.TrimSpace(string(bodySnippet))
		if message == "" {
			message = fmt.Sprintf("status %d", resp.StatusCode)
		}
		err := fmt.Errorf("name verify provider error: status=%d body=%s", resp.StatusCode, message)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return namecheck.Verdict{}, true, err
		}
		return namecheck.Verdict{}, false, err
	}

	var out struct {
		IsReal     *bool `json:"is_real"`
		Confidence *int  `json:"confidence"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return namecheck.Verdict{}, true, fmt.Errorf("decode name verify response: %w", err)
	}
	if out.IsReal == nil || out.Confidence == nil {
		return namecheck.Verdict{}, false, errors.New("name verify provider returned an incomplete verdict")
	}

	confidence := *out.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return namecheck.Verdict{IsReal: *out.IsReal, Confidence: confidence}, false, nil
}

func contextWithDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), timeout)
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func retryDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	if attempt < 0 {
		attempt = 0
	}
	delay := base * time.Duration(1<<attempt)
	jitterScale := 0.8 + (rand.Float64() * 0.4)
	jittered := time.Duration(float64(delay) * jitterScale)
	if jittered < 10*time.Millisecond {
		return 10 * time.Millisecond
	}
	return jittered
}
