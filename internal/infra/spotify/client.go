// Package spotify provides a client for the Spotify Web API.
package spotify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/osa030/muse/internal/infra/auth"
)

// ErrTransient marks outbound failures that are neither auth nor caller errors.
var ErrTransient = errors.New("spotify request failed")

// Client is a Spotify API client.
type Client struct {
	client     *spotify.Client
	market     string
	maxRetries int
	retryDelay time.Duration
}

// Config represents Spotify client configuration.
type Config struct {
	Market            string        // Optional market override
	RequestsPerSecond float64       // Outbound rate limit
	Burst             int           // Rate limiter burst
	MaxRetries        int           // Attempts for rate-limited and 5xx responses
	RetryDelay        time.Duration // Linear backoff step
	BaseURL           string        // API base URL override, used in tests
}

// New creates a Spotify client authenticated by tokens.
func New(cfg Config, tokens oauth2.TokenSource) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Source: tokens,
			Base:   newRateLimitedTransport(http.DefaultTransport, cfg.RequestsPerSecond, cfg.Burst),
		},
	}

	var opts []spotify.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, spotify.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:     spotify.New(httpClient, opts...),
		market:     cfg.Market,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// do runs fn with retries and classifies the final error.
func (c *Client) do(ctx context.Context, op string, fn func() error) error {
	if err := c.retry(ctx, fn); err != nil {
		return classify(errors.Wrapf(err, "failed to %s", op))
	}
	return nil
}

// retry retries an operation with linear backoff.
func (c *Client) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if i < c.maxRetries-1 {
			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "retry cancelled")
			case <-time.After(c.retryDelay * time.Duration(i+1)):
			}
		}
	}
	return errors.Wrap(lastErr, "max retries exceeded")
}

// isRetryable checks if an error is retryable.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	// Rate limit errors and server errors are retryable
	errStr := err.Error()
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504")
}

// isUnauthorized checks if the API rejected the access token.
func isUnauthorized(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "access token")
}

// classify marks err as ErrAuth or ErrTransient.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrAuth), errors.Is(err, context.Canceled):
		return err
	case isUnauthorized(err):
		return errors.Mark(err, auth.ErrAuth)
	default:
		return errors.Mark(err, ErrTransient)
	}
}

// extractID extracts the id from a Spotify URI or open.spotify.com URL of
// the given kind ("track", "playlist", ...). Anything else is returned as is.
func extractID(kind, input string) string {
	input = strings.TrimSpace(input)
	// Handle Spotify URI format: spotify:KIND:ID
	if prefix := "spotify:" + kind + ":"; strings.HasPrefix(input, prefix) {
		return strings.TrimPrefix(input, prefix)
	}

	// Handle URL format: https://open.spotify.com/KIND/ID or https://open.spotify.com/intl-XX/KIND/ID
	sep := "/" + kind + "/"
	if strings.Contains(input, "open.spotify.com") && strings.Contains(input, sep) {
		parts := strings.Split(input, sep)
		id := strings.Split(parts[len(parts)-1], "?")[0]
		return strings.TrimRight(id, "/")
	}

	return input
}

func extractTrackID(input string) string {
	return extractID("track", input)
}

func extractPlaylistID(input string) string {
	return extractID("playlist", input)
}

func marketOpts(market string) []spotify.RequestOption {
	if market == "" {
		return nil
	}
	return []spotify.RequestOption{spotify.Market(market)}
}
