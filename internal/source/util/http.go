package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const UserAgent = "JobPortal/1.0 (+student-portal)"

// NewClient is the HTTP client every board shares unless a test injects one.
func NewClient() *http.Client {
	return &http.Client{Timeout: 20 * time.Second}
}

// Get issues a rate-limited GET and returns the response for any status
// below 400. The caller closes the body.
func Get(ctx context.Context, hc *http.Client, lim *HostLimiter, rawURL string) (*http.Response, error) {
	if err := lim.WaitURL(ctx, rawURL); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4<<10))
		res.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d", rawURL, res.StatusCode)
	}
	return res, nil
}

// GetJSON decodes a JSON response body into v.
func GetJSON(ctx context.Context, hc *http.Client, lim *HostLimiter, rawURL string, v any) error {
	res, err := Get(ctx, hc, lim, rawURL)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}
