// internal/adapters/google/client.go
package google

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"replydesk/internal/adapters/observability"
	"replydesk/internal/domain"
)

// DefaultBaseURL is the Business Profile v4 surface, still the only API that
// exposes review replies.
const DefaultBaseURL = "https://mybusiness.googleapis.com/v4"

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// ---- Public API ----

func (c *Client) ListAccounts(ctx context.Context, token string) ([]map[string]any, error) {
	var env map[string]any
	if err := c.get(ctx, token, "accounts", c.base+"/accounts", &env); err != nil {
		return nil, err
	}
	return sliceOfMaps(env["accounts"]), nil
}

func (c *Client) ListLocations(ctx context.Context, token, accountName, pageToken string) ([]map[string]any, string, error) {
	u := fmt.Sprintf("%s/%s/locations?pageSize=100", c.base, accountName)
	if pageToken != "" {
		u += "&pageToken=" + url.QueryEscape(pageToken)
	}
	var env map[string]any
	if err := c.get(ctx, token, "locations", u, &env); err != nil {
		return nil, "", err
	}
	return sliceOfMaps(env["locations"]), str(env["nextPageToken"]), nil
}

func (c *Client) ListReviews(ctx context.Context, token, accountName, locationID, pageToken string) ([]map[string]any, string, error) {
	u := fmt.Sprintf("%s/%s/locations/%s/reviews?pageSize=50", c.base, accountName, locationID)
	if pageToken != "" {
		u += "&pageToken=" + url.QueryEscape(pageToken)
	}
	var env map[string]any
	if err := c.get(ctx, token, "reviews", u, &env); err != nil {
		return nil, "", err
	}
	return sliceOfMaps(env["reviews"]), str(env["nextPageToken"]), nil
}

// UpdateReply publishes (or overwrites) the owner reply on a review. One
// attempt only; the caller decides whether a failure is worth retrying.
func (c *Client) UpdateReply(ctx context.Context, token, accountName, locationID, reviewID, comment string) error {
	u := fmt.Sprintf("%s/%s/locations/%s/reviews/%s/reply", c.base, accountName, locationID, reviewID)
	err := c.write(ctx, token, http.MethodPut, "reply_update", u, map[string]string{"comment": comment})
	observability.ObservePublish(publishOutcome(err))
	return err
}

// DeleteReply removes the owner reply from a review. One attempt only.
func (c *Client) DeleteReply(ctx context.Context, token, accountName, locationID, reviewID string) error {
	u := fmt.Sprintf("%s/%s/locations/%s/reviews/%s/reply", c.base, accountName, locationID, reviewID)
	return c.write(ctx, token, http.MethodDelete, "reply_delete", u, nil)
}

// ---- Internals ----

// get performs a GET with client-side rate limiting, retries, and JSON decode
// into out. Retries on 429 and transient 5xx, honoring Retry-After when
// provided.
func (c *Client) get(ctx context.Context, token, op, url string, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "replydesk/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("google", op, 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			// context-aware sleep before retry
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("google", op, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return fmt.Errorf("remote %d: %w", resp.StatusCode, domain.ErrAuth)

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// write performs a mutating call with no retries. Failures come back as
// PublishError so callers can tell a retryable outage from a terminal
// rejection.
func (c *Client) write(ctx context.Context, token, method, op, url string, body any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "replydesk/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("google", op, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &domain.PublishError{Retryable: true, Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal("google", op, resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		io.Copy(io.Discard, resp.Body)
		return nil

	case http.StatusNotFound:
		return &domain.PublishError{Retryable: false, Err: domain.ErrNotFound}

	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("remote %d: %w", resp.StatusCode, domain.ErrAuth)

	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return &domain.PublishError{Retryable: true, Err: fmt.Errorf("remote %d", resp.StatusCode)}

	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.PublishError{
			Retryable: false,
			Err:       fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b))),
		}
	}
}

func publishOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, domain.ErrAuth) {
		return "auth"
	}
	var pe *domain.PublishError
	if errors.As(err, &pe) && pe.Retryable {
		return "retryable"
	}
	return "terminal"
}

func sliceOfMaps(v any) []map[string]any {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	// concurrency-safe jitter using crypto/rand
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0                  // 0..1
	j := time.Duration(0.5 * f * float64(base)) // up to +50%
	return base + j
}
