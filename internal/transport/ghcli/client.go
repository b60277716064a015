// Package ghcli implements domain.SearchAPI on top of the gh command line client.
package ghcli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ghcount/internal/domain"
)

// Compile-time check: Client implements domain.SearchAPI.
var _ domain.SearchAPI = (*Client)(nil)

// Resource names as passed to `gh api`.
const (
	OpSearchCode = "search/code"
	OpRateLimit  = "rate_limit"
)

// Exit codes documented by gh.
const (
	exitOK     = 0
	exitFailed = 1
)

// Config holds gh client settings.
type Config struct {
	Path   string // gh executable (default: gh)
	Runner Runner
	Logger *zap.Logger
}

// Client issues gh api calls.
type Client struct {
	path   string
	runner Runner
	logger *zap.Logger
}

// New creates a gh client.
func New(cfg Config) *Client {
	path := cfg.Path
	if path == "" {
		path = "gh"
	}
	runner := cfg.Runner
	if runner == nil {
		runner = NewExecRunner()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{path: path, runner: runner, logger: logger}
}

type searchResponse struct {
	TotalCount        *int64 `json:"total_count"`
	IncompleteResults *bool  `json:"incomplete_results"`
}

type rateLimitResponse struct {
	Resources *struct {
		Search *struct {
			Reset *int64 `json:"reset"`
		} `json:"search"`
	} `json:"resources"`
}

// SearchCode runs `gh api -X GET search/code -f q=<fragment> -f per_page=<n>`.
func (c *Client) SearchCode(ctx context.Context, fragment string, perPage int) (domain.SearchResult, error) {
	res, err := c.runner.Run(ctx, c.path,
		"api", "-X", "GET", OpSearchCode,
		"-f", "q="+fragment,
		"-f", "per_page="+strconv.Itoa(perPage),
	)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("gh %s: %w", OpSearchCode, err)
	}

	switch res.ExitCode {
	case exitOK:
	case exitFailed:
		return domain.SearchResult{}, domain.NewCallError(domain.KindSearchFailed, OpSearchCode, res.ExitCode, nil)
	default:
		return domain.SearchResult{}, domain.NewCallError(domain.KindUnexpectedExitStatus, OpSearchCode, res.ExitCode, nil)
	}

	var body searchResponse
	if err := json.Unmarshal(res.Stdout, &body); err != nil {
		return domain.SearchResult{}, domain.NewCallError(domain.KindSchemaValidation, OpSearchCode, 0, err)
	}
	if body.TotalCount == nil {
		return domain.SearchResult{}, domain.NewCallError(domain.KindSchemaValidation, OpSearchCode, 0,
			fmt.Errorf("missing total_count"))
	}
	if body.IncompleteResults == nil {
		return domain.SearchResult{}, domain.NewCallError(domain.KindSchemaValidation, OpSearchCode, 0,
			fmt.Errorf("missing incomplete_results"))
	}

	c.logger.Debug("gh search completed",
		zap.String("fragment", fragment),
		zap.Int64("total_count", *body.TotalCount),
		zap.Bool("incomplete_results", *body.IncompleteResults),
	)

	return domain.SearchResult{
		TotalCount:        *body.TotalCount,
		IncompleteResults: *body.IncompleteResults,
	}, nil
}

// RateLimit runs `gh api -X GET rate_limit`. Every non-zero exit is fatal.
func (c *Client) RateLimit(ctx context.Context) (domain.RateLimitStatus, error) {
	res, err := c.runner.Run(ctx, c.path, "api", "-X", "GET", OpRateLimit)
	if err != nil {
		return domain.RateLimitStatus{}, fmt.Errorf("gh %s: %w", OpRateLimit, err)
	}
	if res.ExitCode != exitOK {
		return domain.RateLimitStatus{}, domain.NewCallError(domain.KindUnexpectedExitStatus, OpRateLimit, res.ExitCode, nil)
	}

	var body rateLimitResponse
	if err := json.Unmarshal(res.Stdout, &body); err != nil {
		return domain.RateLimitStatus{}, domain.NewCallError(domain.KindSchemaValidation, OpRateLimit, 0, err)
	}
	if body.Resources == nil || body.Resources.Search == nil || body.Resources.Search.Reset == nil {
		return domain.RateLimitStatus{}, domain.NewCallError(domain.KindSchemaValidation, OpRateLimit, 0,
			fmt.Errorf("missing resources.search.reset"))
	}

	return domain.RateLimitStatus{SearchReset: *body.Resources.Search.Reset}, nil
}
