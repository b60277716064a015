package count

import (
	"context"

	"github.com/kailas-cloud/ghcount/internal/domain"
)

// Searcher is the consumer interface for the code-search call (ISP).
type Searcher interface {
	SearchCode(ctx context.Context, fragment string, perPage int) (domain.SearchResult, error)
}
