package fetch

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"
)

// RetryPolicy controls how transient fetch failures are retried.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	RetryStatuses map[int]bool
}

// NewRetryPolicy builds a policy from plain values.
func NewRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration, retryStatuses []int) RetryPolicy {
	statuses := make(map[int]bool, len(retryStatuses))
	for _, s := range retryStatuses {
		statuses[s] = true
	}
	return RetryPolicy{
		MaxAttempts:   maxAttempts,
		BaseDelay:     baseDelay,
		MaxDelay:      maxDelay,
		RetryStatuses: statuses,
	}
}

// ClientOptions wires the shared HTTP fetch behavior.
type ClientOptions struct {
	Limiter     *DomainRateLimiter
	Retry       RetryPolicy
	MaxInFlight int64
	UserAgent   string
	Timeout     time.Duration

	// Per-domain overrides; a nil header value means "remove this header".
	UserAgentOverrides map[string]string
	HeaderOverrides    map[string]map[string]*string

	// Optional human-pacing delay applied before every attempt.
	HumanDelayMin time.Duration
	HumanDelayMax time.Duration
	HumanDelay    bool

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client performs rate-limited, retrying GETs bounded by a global
// concurrency cap shared across all domains and pipeline stages.
type Client struct {
	http         *http.Client
	limiter      *DomainRateLimiter
	retry        RetryPolicy
	sem          *semaphore.Weighted
	userAgent    string
	uaOverrides  map[string]string
	hdrOverrides map[string]map[string]*string
	humanDelay   bool
	humanMin     time.Duration
	humanMax     time.Duration
	logger       *slog.Logger
}

// NewClient builds the shared fetch client.
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 1
	}

	uaOverrides := make(map[string]string, len(opts.UserAgentOverrides))
	for k, v := range opts.UserAgentOverrides {
		uaOverrides[strings.ToLower(k)] = v
	}
	hdrOverrides := make(map[string]map[string]*string, len(opts.HeaderOverrides))
	for k, v := range opts.HeaderOverrides {
		hdrOverrides[strings.ToLower(k)] = v
	}

	return &Client{
		http:         httpClient,
		limiter:      opts.Limiter,
		retry:        opts.Retry,
		sem:          semaphore.NewWeighted(opts.MaxInFlight),
		userAgent:    opts.UserAgent,
		uaOverrides:  uaOverrides,
		hdrOverrides: hdrOverrides,
		humanDelay:   opts.HumanDelay,
		humanMin:     opts.HumanDelayMin,
		humanMax:     opts.HumanDelayMax,
		logger:       opts.Logger,
	}
}

// GetText fetches rawURL and returns its decoded body, or "" when the page
// could not be fetched. Transient failures (network errors, timeouts,
// retryable statuses) are retried with exponential backoff and jitter; any
// other status >= 400 gives up immediately.
func (c *Client) GetText(ctx context.Context, rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	domain := strings.ToLower(parsed.Host)
	headers := c.headersFor(domain)

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Acquire(ctx, domain); err != nil {
				return ""
			}
		}
		if c.humanDelay {
			if !sleepCtx(ctx, randomBetween(c.humanMin, c.humanMax)) {
				return ""
			}
		}

		body, transient := c.attempt(ctx, rawURL, headers)
		if body != "" {
			return body
		}
		if !transient {
			return ""
		}
		if attempt >= c.retry.MaxAttempts {
			return ""
		}

		delay := c.retry.BaseDelay << (attempt - 1)
		if delay > c.retry.MaxDelay {
			delay = c.retry.MaxDelay
		}
		// jitter to avoid thundering herd
		delay = time.Duration(float64(delay) * (0.7 + 0.6*rand.Float64()))
		if !sleepCtx(ctx, delay) {
			return ""
		}
	}

	return ""
}

// attempt performs one GET. The second return reports whether the failure is
// transient (worth retrying).
func (c *Client) attempt(ctx context.Context, rawURL string, headers http.Header) (string, bool) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", false
	}
	defer c.sem.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", false
	}
	req.Header = headers.Clone()

	resp, err := c.http.Do(req)
	if err != nil {
		c.debug("fetch attempt failed", "url", rawURL, "error", err)
		return "", true
	}
	defer resp.Body.Close()

	if c.retry.RetryStatuses[resp.StatusCode] {
		c.debug("retryable status", "url", rawURL, "status", resp.StatusCode)
		return "", true
	}
	if resp.StatusCode >= http.StatusBadRequest {
		c.debug("terminal status", "url", rawURL, "status", resp.StatusCode)
		return "", false
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true
	}

	// tolerate undecodable bytes rather than failing the fetch
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError)), false
}

// headersFor resolves the default headers plus per-domain overrides, trying
// the exact domain first and then the www.-stripped form.
func (c *Client) headersFor(domain string) http.Header {
	ua, ok := c.uaOverrides[domain]
	if !ok {
		ua, ok = c.uaOverrides[strings.TrimPrefix(domain, "www.")]
	}
	if !ok {
		ua = c.userAgent
	}

	headers := http.Header{}
	headers.Set("User-Agent", ua)
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	headers.Set("Accept-Language", "en-US,en;q=0.9")

	overrides, ok := c.hdrOverrides[domain]
	if !ok {
		overrides = c.hdrOverrides[strings.TrimPrefix(domain, "www.")]
	}
	for name, value := range overrides {
		if value == nil {
			headers.Del(name)
			continue
		}
		headers.Set(name, *value)
	}

	return headers
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func randomBetween(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(hi-lo)))
}

// sleepCtx sleeps for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
