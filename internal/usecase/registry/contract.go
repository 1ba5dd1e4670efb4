package registry

import (
	"context"

	"github.com/harbormind/specdex/internal/domain"
)

// Fetcher retrieves raw specification text from a URL or file path.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// Resolver turns raw specification text into a normalized endpoint list.
type Resolver interface {
	Resolve(rawText []byte) (domain.ParsedSpec, error)
}
