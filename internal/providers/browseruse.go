package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrNoAPIKey is returned when the skill client has no key configured.
// Callers treat it like any other provider failure: no data.
var ErrNoAPIKey = errors.New("browseruse: no API key configured")

// Client invokes Browser-Use automation skills. All stay, activity and
// geocoding providers share one client so its rate limiter covers every
// outbound call.
type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
	log  zerolog.Logger
}

func NewClient(base, key string, rps int, log zerolog.Logger) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: 60 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
		log:  log.With().Str("component", "browseruse").Logger(),
	}
}

// ExecuteSkill POSTs {"parameters": params} to the skill endpoint and
// decodes the JSON response. Retries transient failures with backoff.
func (c *Client) ExecuteSkill(ctx context.Context, skillID string, params map[string]any) (map[string]any, error) {
	if c.key == "" {
		return nil, ErrNoAPIKey
	}
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{"parameters": params})
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/skills/%s/execute", c.base, skillID)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Browser-Use-API-Key", c.key)

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if attempt < 2 && sleepCtx(ctx, backoff(attempt)) {
				continue
			}
			return nil, lastErr
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			var out map[string]any
			err := json.NewDecoder(resp.Body).Decode(&out)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("decode skill response: %w", err)
			}
			return out, nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("skill %s: remote %d", skillID, resp.StatusCode)
			if attempt < 2 && sleepCtx(ctx, backoff(attempt)) {
				continue
			}
			return nil, lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return nil, fmt.Errorf("skill %s: bad status %d: %s", skillID, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return nil, lastErr
}

// sleepCtx waits for d or returns false if ctx finishes first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * 250 * time.Millisecond
}

// resultSection digs out the payload section named by keys, tolerating the
// equally likely result.data.X, data.X and top-level X nestings.
func resultSection(raw map[string]any, keys ...string) []any {
	scopes := []map[string]any{}
	if result, ok := raw["result"].(map[string]any); ok {
		if data, ok := result["data"].(map[string]any); ok {
			scopes = append(scopes, data)
		}
		scopes = append(scopes, result)
	}
	if data, ok := raw["data"].(map[string]any); ok {
		scopes = append(scopes, data)
	}
	scopes = append(scopes, raw)

	for _, scope := range scopes {
		for _, key := range keys {
			if arr, ok := scope[key].([]any); ok {
				return arr
			}
		}
	}
	return nil
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func floatField(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		if f, ok := m[k].(float64); ok {
			return f
		}
	}
	return 0
}
