// Package github implements domain.SearchAPI over the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v43/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/kailas-cloud/ghcount/internal/domain"
)

// Compile-time check: Client implements domain.SearchAPI.
var _ domain.SearchAPI = (*Client)(nil)

// Operation names used in call errors, matching the gh CLI resources.
const (
	OpSearchCode = "search/code"
	OpRateLimit  = "rate_limit"
)

// Config holds REST client settings.
type Config struct {
	Token      string
	BaseURL    string // empty for api.github.com
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is a go-github backed search client.
type Client struct {
	gh     *gh.Client
	logger *zap.Logger
}

// New creates a REST search client. A token, if set, is sent as an OAuth2 bearer.
func New(ctx context.Context, cfg Config) (*Client, error) {
	httpClient := cfg.HTTPClient
	if cfg.Token != "" {
		if httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		}
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	}

	client := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parse base url %q: %w", cfg.BaseURL, err)
		}
		client.BaseURL = u
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{gh: client, logger: logger}, nil
}

// SearchCode queries /search/code for fragment, asking for perPage items.
func (c *Client) SearchCode(ctx context.Context, fragment string, perPage int) (domain.SearchResult, error) {
	res, _, err := c.gh.Search.Code(ctx, fragment, &gh.SearchOptions{
		ListOptions: gh.ListOptions{PerPage: perPage},
	})
	if err != nil {
		return domain.SearchResult{}, classifySearchError(ctx, err)
	}
	if res == nil || res.Total == nil {
		return domain.SearchResult{}, domain.NewCallError(domain.KindSchemaValidation, OpSearchCode, 0,
			fmt.Errorf("missing total_count"))
	}
	if res.IncompleteResults == nil {
		return domain.SearchResult{}, domain.NewCallError(domain.KindSchemaValidation, OpSearchCode, 0,
			fmt.Errorf("missing incomplete_results"))
	}

	c.logger.Debug("GitHub search completed",
		zap.String("fragment", fragment),
		zap.Int("total_count", res.GetTotal()),
		zap.Bool("incomplete_results", res.GetIncompleteResults()),
	)

	return domain.SearchResult{
		TotalCount:        int64(res.GetTotal()),
		IncompleteResults: res.GetIncompleteResults(),
	}, nil
}

// RateLimit reads the search resource window. Every failure is fatal.
func (c *Client) RateLimit(ctx context.Context) (domain.RateLimitStatus, error) {
	limits, _, err := c.gh.RateLimits(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return domain.RateLimitStatus{}, fmt.Errorf("%s: %w", OpRateLimit, ctx.Err())
		}
		return domain.RateLimitStatus{}, domain.NewCallError(domain.KindUnexpectedExitStatus, OpRateLimit, httpStatus(err), err)
	}
	if limits == nil || limits.Search == nil {
		return domain.RateLimitStatus{}, domain.NewCallError(domain.KindSchemaValidation, OpRateLimit, 0,
			fmt.Errorf("missing resources.search"))
	}
	return domain.RateLimitStatus{SearchReset: limits.Search.Reset.Unix()}, nil
}

// classifySearchError maps REST failures onto the gh exit code contract:
// transient quota or server failures are retryable, client errors are not.
func classifySearchError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", OpSearchCode, ctx.Err())
	}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return domain.NewCallError(domain.KindSearchFailed, OpSearchCode, httpStatus(err), err)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) {
		status := httpStatus(err)
		switch {
		case status == http.StatusForbidden, status == http.StatusTooManyRequests, status >= 500:
			return domain.NewCallError(domain.KindSearchFailed, OpSearchCode, status, err)
		default:
			return domain.NewCallError(domain.KindUnexpectedExitStatus, OpSearchCode, status, err)
		}
	}

	// Transport errors (connection reset, DNS) behave like a failed gh call.
	return domain.NewCallError(domain.KindSearchFailed, OpSearchCode, 0, err)
}

func httpStatus(err error) int {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response.StatusCode
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return abuseErr.Response.StatusCode
	}
	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode
	}
	return 0
}
