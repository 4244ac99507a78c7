// Package fetcher implements the rate-limited EDGAR HTTP client: a
// single global token bucket shared by every worker, a contact-bearing
// User-Agent, and bounded retry/backoff on 429/5xx.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// RateLimit is the SEC's documented ceiling: at most 10 requests
	// per second, enforced globally across every worker.
	RateLimit = 10

	maxAttempts  = 3
	backoffBase  = time.Second
	backoffMult  = 2
	jitterFrac   = 0.25
	requestTO    = 30 * time.Second
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Fetcher issues rate-limited GET requests to EDGAR.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       *zap.Logger
}

// Config configures a Fetcher. Organization and Contact together build
// the required `"<organization> <contact-email>"` User-Agent.
type Config struct {
	Organization string
	Contact      string
	Logger       *zap.Logger
}

// New validates the contact email and builds a Fetcher. A missing or
// placeholder contact fails fast with ErrConfig before any network
// I/O — no Fetcher is returned.
func New(cfg Config) (*Fetcher, error) {
	if cfg.Contact == "" {
		return nil, eris.Wrap(ErrConfig, "contact email required")
	}
	if !emailPattern.MatchString(cfg.Contact) {
		return nil, eris.Wrapf(ErrConfig, "invalid contact email: %s", cfg.Contact)
	}
	if strings.HasSuffix(cfg.Contact, "example.com") {
		return nil, eris.Wrapf(ErrConfig, "use a real contact email, not example.com: %s", cfg.Contact)
	}

	org := cfg.Organization
	if org == "" {
		org = "edgaringest"
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: requestTO,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: RateLimit,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		limiter:   rate.NewLimiter(rate.Limit(RateLimit), 1),
		userAgent: fmt.Sprintf("%s %s", org, cfg.Contact),
		log:       log,
	}, nil
}

// Fetch issues a single rate-limited GET, retrying on 429/5xx with
// exponential backoff (base 1s, factor 2, jitter ±25%), at most 3
// attempts total. A timeout counts as one retryable attempt. Non-429
// 4xx responses are not retried.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait interrupted")
		}

		body, retryAfter, err := f.attempt(ctx, url)
		if err == nil {
			return body, nil
		}

		lastErr = err

		if !retryable(err) {
			return nil, err
		}
		if attempt == maxAttempts-1 {
			break
		}

		delay := backoffDelay(attempt, retryAfter)
		f.log.Warn("retrying EDGAR request",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if eris.Is(lastErr, ErrRateLimit) || isStatusErr(lastErr, http.StatusTooManyRequests) {
		return nil, eris.Wrap(ErrRateLimit, lastErr.Error())
	}
	return nil, eris.Wrap(ErrFetch, lastErr.Error())
}

func (f *Fetcher) attempt(ctx context.Context, url string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, eris.Wrap(err, "building request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, &transportErr{err: eris.Wrap(err, "request failed")}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, 0, eris.Wrap(err, "reading response body")
		}
		return body, 0, nil
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		ra := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, ra, &statusErr{code: resp.StatusCode}
	}
	if resp.StatusCode >= 500 {
		return nil, 0, &statusErr{code: resp.StatusCode}
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, 0, eris.Wrapf(ErrNotFound, "404 for %s", url)
	}
	return nil, 0, eris.Wrapf(ErrFetch, "SEC returned status %d for %s", resp.StatusCode, url)
}

type statusErr struct{ code int }

func (e *statusErr) Error() string { return fmt.Sprintf("SEC returned status %d", e.code) }

// transportErr marks a connection/timeout-level failure (as opposed to
// an HTTP response we understood and rejected), which is always
// retryable — a request timeout counts as one retryable attempt.
type transportErr struct{ err error }

func (e *transportErr) Error() string { return e.err.Error() }
func (e *transportErr) Unwrap() error { return e.err }

func isStatusErr(err error, code int) bool {
	se, ok := err.(*statusErr)
	return ok && se.code == code
}

func retryable(err error) bool {
	if se, ok := err.(*statusErr); ok {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	if _, ok := err.(*transportErr); ok {
		return true
	}
	return false
}

// backoffDelay computes base*2^attempt with +/-25% jitter, floored by
// any Retry-After the server supplied.
func backoffDelay(attempt int, retryAfter time.Duration) time.Duration {
	base := backoffBase
	for i := 0; i < attempt; i++ {
		base *= backoffMult
	}
	jitter := time.Duration((rand.Float64()*2 - 1) * jitterFrac * float64(base))
	delay := base + jitter
	if delay < retryAfter {
		delay = retryAfter
	}
	return delay
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		if d := time.Until(when); d > 0 {
			return d
		}
	}
	return 0
}
