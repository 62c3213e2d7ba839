package github

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/catsync/internal/core/domain"
	"github.com/custodia-labs/catsync/internal/core/ports/driven"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// ClientOptions configures a Client.
type ClientOptions struct {
	// Token is an optional static bearer token.
	Token string

	// RatePerSecond is the proactive request rate. Non-positive disables it.
	RatePerSecond float64

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the underlying client. Token is ignored when set.
	HTTPClient *http.Client
}

// Client performs conditional GETs through go-github.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
}

var _ driven.Fetcher = (*Client)(nil)

// NewClient creates a GitHub client.
func NewClient(ctx context.Context, opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		if opts.Token != "" {
			ts := oauth2.StaticTokenSource(
				&oauth2.Token{AccessToken: opts.Token},
			)
			httpClient = oauth2.NewClient(ctx, ts)
		} else {
			httpClient = &http.Client{}
		}
		httpClient.Timeout = timeout
	}

	return &Client{
		gh:          gh.NewClient(httpClient),
		rateLimiter: NewRateLimiter(opts.RatePerSecond),
	}
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// Fetch performs one conditional GET of req.URL and reads the whole body.
// A 304 is returned as an error matching domain.ErrNotModified.
func (c *Client) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.FetchResponse, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrTransportFailure, err)
	}

	httpReq, err := c.gh.NewRequest(http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrTransportFailure, err)
	}
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("Pragma", "no-cache")
	if req.UserAgent != "" {
		httpReq.Header.Set("User-Agent", req.UserAgent)
	}
	if !req.IfModifiedSince.IsZero() {
		httpReq.Header.Set("If-Modified-Since", req.IfModifiedSince.UTC().Format(http.TimeFormat))
	}

	var body bytes.Buffer
	resp, err := c.gh.Do(ctx, httpReq, &body)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, req.URL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, URL: req.URL}
	}

	out := &domain.FetchResponse{
		StatusCode: resp.StatusCode,
		Body:       body.Bytes(),
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, err := http.ParseTime(lm); err == nil {
			out.LastModified = t
		}
	}
	return out, nil
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, url string) error {
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &RateLimitError{
			ResetAt: time.Now().Add(abuseErr.GetRetryAfter()),
			Limit:   c.rateLimiter.Limit(),
		}
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        url,
		}
	}

	var accepted *gh.AcceptedError
	if errors.As(err, &accepted) {
		return &APIError{StatusCode: http.StatusAccepted, URL: url}
	}

	return fmt.Errorf("%w: GET %s: %w", domain.ErrTransportFailure, url, err)
}
