package vin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Fallback talks to an external VIN decoding provider. The provider may
// be disabled or unreachable; callers treat any error as a failed
// fallback and continue.
type Fallback struct {
	enabled bool
	baseURL string
	timeout time.Duration
	client  *http.Client
}

type FallbackResult struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  *int   `json:"year"`
	Trim  string `json:"trim"`
}

func NewFallback(enabled bool, baseURL string, timeout time.Duration) *Fallback {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	transport, ok := http.DefaultTransport.(*http.Transport)
	client := &http.Client{Timeout: timeout}
	if ok {
		cloned := transport.Clone()
		cloned.Proxy = nil
		client.Transport = cloned
	}
	return &Fallback{
		enabled: enabled,
		baseURL: baseURL,
		timeout: timeout,
		client:  client,
	}
}

func (f *Fallback) Enabled() bool {
	return f != nil && f.enabled && f.baseURL != ""
}

// Prepare validates the provider configuration ahead of time so the
// lookup, if needed, fails fast instead of mid-response.
func (f *Fallback) Prepare(ctx context.Context) error {
	if !f.Enabled() {
		return nil
	}
	if _, err := url.Parse(f.baseURL); err != nil {
		return fmt.Errorf("invalid fallback url: %w", err)
	}
	return nil
}

// Lookup queries the provider with a deadline-bounded wait. A disabled
// provider fails immediately.
func (f *Fallback) Lookup(ctx context.Context, vin string) (*FallbackResult, error) {
	if !f.Enabled() {
		return nil, fmt.Errorf("fallback provider disabled")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s?vin=%s", f.baseURL, url.QueryEscape(vin))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fallback provider returned status %d", res.StatusCode)
	}

	var result FallbackResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
