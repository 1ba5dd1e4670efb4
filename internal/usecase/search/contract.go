// Package search ranks catalog endpoints against free-text queries. Two
// interchangeable strategies implement the same contract: a lexical
// token-set ratio and a semantic embedding similarity.
package search

import (
	"context"

	"github.com/harbormind/specdex/internal/domain"
)

// DefaultConfidenceThreshold flags results below this score as low
// confidence rather than discarding them.
const DefaultConfidenceThreshold = 0.4

// Matcher is the single-method strategy contract. Results are sorted by
// score descending, equal scores keep the original catalog order, and
// the result count is min(limit, len(endpoints)).
type Matcher interface {
	Search(ctx context.Context, query string, endpoints []domain.Endpoint, limit int) ([]domain.SearchResult, error)
}

// Embedder is the consumer contract of the semantic matcher.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
