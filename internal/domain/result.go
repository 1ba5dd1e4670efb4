package domain

// SearchResult is a single ranked hit. Endpoint points into the catalog's
// endpoint list rather than carrying a stripped copy, so downstream
// consumers keep everything needed to construct a real request.
type SearchResult struct {
	Endpoint      *Endpoint `json:"endpoint"`
	Score         float64   `json:"similarity_score"`
	LowConfidence bool      `json:"low_confidence"`
}
