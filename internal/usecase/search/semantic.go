package search

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/harbormind/specdex/internal/domain"
	"github.com/harbormind/specdex/internal/metrics"
)

// EmbedderFactory defers embedder construction until the first search, so
// a process that never runs a semantic search never pays for model setup
// and never sees a setup failure.
type EmbedderFactory func() (Embedder, error)

// cacheEntry pairs an endpoint embedding with the text it was computed
// from, keyed by "METHOD:path".
type cacheEntry struct {
	vector []float32
	text   string
}

// Semantic ranks endpoints by cosine similarity between the query
// embedding and cached endpoint embeddings. The cache and the loaded
// embedder are scoped to one matcher instance; independently configured
// matchers coexist safely.
type Semantic struct {
	threshold float64
	factory   EmbedderFactory

	mu       sync.Mutex
	embedder Embedder // nil until first use
	cache    map[string]cacheEntry
}

// NewSemantic creates a semantic matcher. The factory is not invoked
// here; threshold <= 0 falls back to DefaultConfidenceThreshold.
func NewSemantic(factory EmbedderFactory, threshold float64) *Semantic {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Semantic{
		threshold: threshold,
		factory:   factory,
		cache:     map[string]cacheEntry{},
	}
}

// Search implements Matcher. Endpoints missing a cached embedding are
// embedded in one batched call before scoring.
func (m *Semantic) Search(ctx context.Context, query string, endpoints []domain.Endpoint, limit int) ([]domain.SearchResult, error) {
	metrics.SearchRequestsTotal.WithLabelValues("semantic").Inc()

	if len(endpoints) == 0 {
		return nil, nil
	}

	embedder, err := m.loadEmbedder()
	if err != nil {
		return nil, err
	}

	if err := m.ensureEmbeddings(ctx, embedder, endpoints); err != nil {
		return nil, err
	}

	queryRes, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(endpoints))
	m.mu.Lock()
	for i := range endpoints {
		entry, ok := m.cache[endpoints[i].Key()]
		if !ok {
			continue
		}
		score := remappedCosine(queryRes.Embedding, entry.vector)
		results = append(results, domain.SearchResult{
			Endpoint:      &endpoints[i],
			Score:         score,
			LowConfidence: score < m.threshold,
		})
	}
	m.mu.Unlock()

	sortByScore(results)
	return truncate(results, limit), nil
}

// ClearCache drops all cached embeddings. Entries are never invalidated
// automatically; call this after the underlying spec changes.
func (m *Semantic) ClearCache() {
	m.mu.Lock()
	m.cache = map[string]cacheEntry{}
	m.mu.Unlock()
}

// loadEmbedder runs the factory on first use and keeps the result. A
// failed factory is retried on the next call rather than latched.
func (m *Semantic) loadEmbedder() (Embedder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.embedder != nil {
		return m.embedder, nil
	}
	embedder, err := m.factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	m.embedder = embedder
	return embedder, nil
}

// ensureEmbeddings embeds every endpoint in the set that has no cached
// vector yet, in one batched call when the embedder supports it. Outputs
// re-associate to keys by input order. The embedding call itself runs
// outside the lock: two searches racing on the same key recompute the
// same value, which is harmless.
func (m *Semantic) ensureEmbeddings(ctx context.Context, embedder Embedder, endpoints []domain.Endpoint) error {
	var keys, texts []string

	m.mu.Lock()
	for i := range endpoints {
		key := endpoints[i].Key()
		if _, ok := m.cache[key]; ok {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			continue
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
		keys = append(keys, key)
		texts = append(texts, SearchableText(&endpoints[i]))
	}
	m.mu.Unlock()

	if len(texts) == 0 {
		return nil
	}

	var batch domain.BatchEmbeddingResult
	var err error
	if be, ok := embedder.(domain.BatchEmbedder); ok {
		batch, err = be.BatchEmbed(ctx, texts)
	} else {
		batch, err = domain.BatchFallback(ctx, embedder, texts)
	}
	if err != nil {
		return fmt.Errorf("embed endpoints: %w", err)
	}
	if len(batch.Embeddings) != len(keys) {
		return fmt.Errorf("embed endpoints: got %d vectors for %d texts", len(batch.Embeddings), len(keys))
	}

	m.mu.Lock()
	for i, key := range keys {
		m.cache[key] = cacheEntry{vector: batch.Embeddings[i], text: texts[i]}
	}
	m.mu.Unlock()
	return nil
}

// remappedCosine maps cosine similarity from its native [-1, 1] onto
// [0, 1]: orthogonal vectors read 0.5, opposite 0.0, identical 1.0. A
// zero-magnitude vector reads exactly 0.0, bypassing the remap.
func remappedCosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	for i := n; i < len(a); i++ {
		normA += float64(a[i]) * float64(a[i])
	}
	for i := n; i < len(b); i++ {
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}
