package execute

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel batch execution.
const DefaultConcurrency = 5

// BatchSummary aggregates batch outcomes.
type BatchSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BatchResult holds per-request results in input order plus a summary.
type BatchResult struct {
	Results []Result     `json:"results"`
	Summary BatchSummary `json:"summary"`
}

// Batch runs multiple requests against one API, either sequentially or
// concurrently under a bounded limit.
type Batch struct {
	svc         *Service
	concurrency int
}

// NewBatch creates a batch runner; concurrency <= 0 falls back to
// DefaultConcurrency.
func NewBatch(svc *Service, concurrency int) *Batch {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Batch{svc: svc, concurrency: concurrency}
}

// Execute runs all requests and preserves input order in the results.
// Individual failures are recorded per result and never abort the batch.
func (b *Batch) Execute(ctx context.Context, requests []Request, parallel bool) BatchResult {
	results := make([]Result, len(requests))

	if parallel {
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(b.concurrency)
		for i, req := range requests {
			g.Go(func() error {
				results[i] = b.svc.Execute(ctx, req)
				return nil
			})
		}
		// Workers never return errors; they record failures in place.
		_ = g.Wait()
	} else {
		for i, req := range requests {
			results[i] = b.svc.Execute(ctx, req)
		}
	}

	summary := BatchSummary{Total: len(results)}
	for _, r := range results {
		if r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusBadRequest {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	return BatchResult{Results: results, Summary: summary}
}
