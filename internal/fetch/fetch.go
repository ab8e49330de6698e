// Package fetch collects contributor activity from the GitHub REST API.
// It turns commit listings and pull request searches into activity units,
// one worker per repository, and folds the per-repository partials into a
// single aggregation engine.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBaseURL = "https://api.github.com"
	apiVersion     = "2022-11-28"
	acceptHeader   = "application/vnd.github+json"

	requestTimeout = 30 * time.Second

	// computingRetries bounds retries of 202 Accepted responses, which
	// GitHub returns while statistics are being computed server-side.
	computingRetries    = 5
	computingRetryDelay = 2 * time.Second

	// maxRateLimitWait caps how long a worker sleeps on a rate-limited
	// response before giving up.
	maxRateLimitWait = 10 * time.Minute
)

// Sentinel errors for the GitHub client.
var (
	// ErrRateLimited is returned when the rate limit reset is too far away
	// to wait for.
	ErrRateLimited = errors.New("fetch: rate limited")
	// ErrStillComputing is returned when GitHub keeps answering 202 past
	// the retry budget.
	ErrStillComputing = errors.New("fetch: statistics still computing")
	// ErrHTTPStatus wraps unexpected HTTP status codes.
	ErrHTTPStatus = errors.New("fetch: unexpected HTTP status")
)

// tracerName identifies fetch spans.
const tracerName = "commitpulse/fetch"

// Options configures a Client.
type Options struct {
	// BaseURL overrides the GitHub API endpoint. Empty means api.github.com.
	BaseURL string
	// Token is the bearer token. Empty means unauthenticated requests.
	Token string
	// Cache is the optional on-disk response cache. Nil disables caching.
	Cache *Cache
	// Logger receives request-level diagnostics. Nil means slog.Default.
	Logger *slog.Logger
	// HTTPClient overrides the transport, used by tests. Nil means a
	// client with the default request timeout.
	HTTPClient *http.Client
}

// Client is a rate-limit-aware GitHub REST client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cache      *Cache
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewClient creates a GitHub client.
func NewClient(options Options) *Client {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      options.Token,
		cache:      options.Cache,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// get fetches a URL and returns the response body. It serves cache hits,
// retries 202 Accepted responses, and waits out rate limit resets when the
// reset is near enough.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.cache != nil {
		body, ok := c.cache.Get(url)
		if ok {
			return body, nil
		}
	}

	ctx, span := c.tracer.Start(ctx, "github.get",
		trace.WithAttributes(attribute.String("http.url", url)))
	defer span.End()

	body, err := c.getUncached(ctx, url)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Put(url, body)
	}

	return body, nil
}

func (c *Client) getUncached(ctx context.Context, url string) ([]byte, error) {
	for attempt := 0; attempt <= computingRetries; attempt++ {
		body, retry, err := c.doOnce(ctx, url)
		if err != nil {
			return nil, err
		}

		if !retry {
			return body, nil
		}

		c.logger.Debug("statistics computing, retrying", "url", url, "attempt", attempt+1)

		err = sleepCtx(ctx, computingRetryDelay)
		if err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrStillComputing, url)
}

// doOnce performs one request. The second return value asks the caller to
// retry after a delay.
func (c *Client) doOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, false, fmt.Errorf("read response: %w", readErr)
		}

		return body, false, nil

	case http.StatusAccepted:
		return nil, true, nil

	case http.StatusForbidden, http.StatusTooManyRequests:
		waitErr := c.waitForReset(ctx, resp)
		if waitErr != nil {
			return nil, false, waitErr
		}

		return nil, true, nil

	case http.StatusUnprocessableEntity:
		// Search queries referencing unknown users or repos come back
		// 422; callers treat the result as empty.
		return nil, false, nil

	default:
		return nil, false, fmt.Errorf("%w: %d for %s", ErrHTTPStatus, resp.StatusCode, url)
	}
}

// waitForReset sleeps until the rate limit window resets, if the reset is
// near enough and the response is actually rate limiting.
func (c *Client) waitForReset(ctx context.Context, resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining != "" && remaining != "0" {
		return fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}

	reset, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: no usable reset header", ErrRateLimited)
	}

	wait := time.Until(time.Unix(reset, 0)) + time.Second
	if wait <= 0 {
		return nil
	}

	if wait > maxRateLimitWait {
		return fmt.Errorf("%w: reset in %s", ErrRateLimited, wait.Round(time.Second))
	}

	c.logger.Warn("rate limited, waiting for reset", "wait", wait.Round(time.Second))

	return sleepCtx(ctx, wait)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
