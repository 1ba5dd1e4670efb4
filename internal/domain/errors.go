package domain

import "errors"

var (
	// ErrSpecUnavailable signals that a spec source could not be fetched.
	ErrSpecUnavailable = errors.New("spec unavailable")
	// ErrSpecSyntax signals text that is neither valid JSON nor valid YAML.
	ErrSpecSyntax = errors.New("spec is neither valid JSON nor valid YAML")
	// ErrAPINotFound signals a lookup against an unregistered API name.
	ErrAPINotFound = errors.New("api not found")
	// ErrModelUnavailable signals that the embedding model could not be set up.
	ErrModelUnavailable = errors.New("embedding model unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)
