package search

import (
	"context"
	"sort"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/harbormind/specdex/internal/domain"
	"github.com/harbormind/specdex/internal/metrics"
)

// Lexical scores endpoints with a token-set fuzzy ratio between the
// lowercased query and each endpoint's searchable text. Stateless and
// safe for concurrent use.
type Lexical struct {
	threshold float64
}

// NewLexical creates a lexical matcher. threshold <= 0 falls back to
// DefaultConfidenceThreshold.
func NewLexical(threshold float64) *Lexical {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Lexical{threshold: threshold}
}

// Search implements Matcher.
func (m *Lexical) Search(_ context.Context, query string, endpoints []domain.Endpoint, limit int) ([]domain.SearchResult, error) {
	metrics.SearchRequestsTotal.WithLabelValues("lexical").Inc()

	q := strings.ToLower(query)
	results := make([]domain.SearchResult, 0, len(endpoints))

	for i := range endpoints {
		text := strings.ToLower(SearchableText(&endpoints[i]))
		// TokenSetRatio reports on a native 0-100 scale. cleanse=true
		// turns non-alphanumerics into spaces before tokenizing, so a
		// query like "GET /pets/{petId}" splits into comparable tokens.
		score := float64(fuzzy.TokenSetRatio(q, text, false, true)) / 100.0
		results = append(results, domain.SearchResult{
			Endpoint:      &endpoints[i],
			Score:         score,
			LowConfidence: score < m.threshold,
		})
	}

	sortByScore(results)
	return truncate(results, limit), nil
}

// sortByScore orders results by score descending; the stable sort keeps
// the original catalog order on ties.
func sortByScore(results []domain.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

func truncate(results []domain.SearchResult, limit int) []domain.SearchResult {
	if limit >= 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
