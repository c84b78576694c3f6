package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrTooLarge is returned when a response body exceeds the size limit.
var ErrTooLarge = errors.New("response exceeds size limit")

// ErrHostNotAllowed is returned by Get for hosts outside the allow-list.
var ErrHostNotAllowed = errors.New("host not allowed")

// RetryableError marks a failed request as worth retrying.
type RetryableError struct {
	StatusCode int
	Err        error
}

func (e *RetryableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retryable (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("retryable: %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// StatusError is a non-retryable HTTP failure.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

type Options struct {
	AllowedHosts []string
	Timeout      time.Duration
	Attempts     int
	Delay        time.Duration
	MaxBytes     int64
	UserAgent    string
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client downloads documents and listing pages from allowed hosts.
type Client struct {
	httpClient *http.Client
	allowed    map[string]bool
	attempts   uint
	delay      time.Duration
	maxBytes   int64
	userAgent  string
	log        *slog.Logger
}

func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "kozlony/1.0"
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	allowed := make(map[string]bool, len(opts.AllowedHosts))
	for _, h := range opts.AllowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			allowed[h] = true
		}
	}

	return &Client{
		httpClient: hc,
		allowed:    allowed,
		attempts:   uint(attempts),
		delay:      delay,
		maxBytes:   opts.MaxBytes,
		userAgent:  ua,
		log:        log,
	}
}

// Allowed reports whether rawURL is an http(s) URL on an allowed host.
// An empty allow-list permits every host.
func (c *Client) Allowed(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	if len(c.allowed) == 0 {
		return true
	}
	return c.allowed[strings.ToLower(u.Hostname())]
}

// Get fetches rawURL, retrying network errors, 429 and 5xx responses.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if !c.Allowed(rawURL) {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, rawURL)
	}

	var body []byte
	err := retry.Do(
		func() error {
			b, err := c.getOnce(ctx, rawURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("fetch retry", "url", rawURL, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &RetryableError{StatusCode: resp.StatusCode, Err: fmt.Errorf("GET %s", rawURL)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
	}

	var r io.Reader = resp.Body
	if c.maxBytes > 0 {
		if resp.ContentLength > c.maxBytes {
			return nil, ErrTooLarge
		}
		r = io.LimitReader(resp.Body, c.maxBytes+1)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("read body: %w", err)}
	}
	if c.maxBytes > 0 && int64(len(body)) > c.maxBytes {
		return nil, ErrTooLarge
	}
	return body, nil
}

func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
