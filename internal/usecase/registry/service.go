// Package registry is the per-process catalog of registered APIs: one
// parsed spec and one configuration per name.
package registry

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/harbormind/specdex/internal/config"
	"github.com/harbormind/specdex/internal/domain"
	"github.com/harbormind/specdex/internal/metrics"
)

// APIInfo is one row of the catalog listing.
type APIInfo struct {
	Name          string `json:"name"`
	BaseURL       string `json:"base_url"`
	Description   string `json:"description,omitempty"`
	AuthType      string `json:"auth_type"`
	EndpointCount int    `json:"endpoint_count"`
}

// Service holds registered APIs. A spec that fails to fetch or parse
// still registers: the API is listed with zero endpoints and a
// description carrying the failure, so one bad registration never takes
// down the rest of the catalog.
type Service struct {
	fetcher  Fetcher
	resolver Resolver
	logger   *zap.Logger

	mu      sync.RWMutex
	configs map[string]config.APIConfig
	specs   map[string]domain.ParsedSpec
	order   []string // registration order, for stable listings
}

// New creates an empty catalog.
func New(fetcher Fetcher, resolver Resolver, logger *zap.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		resolver: resolver,
		logger:   logger,
		configs:  map[string]config.APIConfig{},
		specs:    map[string]domain.ParsedSpec{},
	}
}

// RegisterAll registers every configured API in order.
func (s *Service) RegisterAll(ctx context.Context, apis []config.APIConfig) {
	for _, api := range apis {
		s.Register(ctx, api)
	}
}

// Register fetches and resolves the API's spec and stores the result.
// Fetch and parse failures are absorbed here: the API is stored with a
// placeholder empty spec instead of propagating the error. Re-registering
// a name replaces its spec wholesale.
func (s *Service) Register(ctx context.Context, cfg config.APIConfig) {
	spec, err := s.loadSpec(ctx, cfg)
	if err != nil {
		metrics.SpecRegistrationsTotal.WithLabelValues("error").Inc()
		s.logger.Error("Failed to load spec",
			zap.String("api", cfg.Name),
			zap.String("spec_url", cfg.SpecURL),
			zap.Error(err),
		)
		spec = domain.ParsedSpec{
			Title:       cfg.Name,
			Version:     "unknown",
			Description: fmt.Sprintf("Failed to load spec: %v", err),
		}
	} else {
		metrics.SpecRegistrationsTotal.WithLabelValues("ok").Inc()
		s.logger.Info("Registered API",
			zap.String("api", cfg.Name),
			zap.Int("endpoints", len(spec.Endpoints)),
		)
	}

	s.mu.Lock()
	if _, exists := s.configs[cfg.Name]; !exists {
		s.order = append(s.order, cfg.Name)
	}
	s.configs[cfg.Name] = cfg
	s.specs[cfg.Name] = spec
	s.mu.Unlock()
}

func (s *Service) loadSpec(ctx context.Context, cfg config.APIConfig) (domain.ParsedSpec, error) {
	raw, err := s.fetcher.Fetch(ctx, cfg.SpecURL)
	if err != nil {
		return domain.ParsedSpec{}, err
	}
	spec, err := s.resolver.Resolve(raw)
	if err != nil {
		return domain.ParsedSpec{}, err
	}
	return spec, nil
}

// ListAPIs returns metadata for every registered API in registration
// order.
func (s *Service) ListAPIs() []APIInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]APIInfo, 0, len(s.order))
	for _, name := range s.order {
		cfg := s.configs[name]
		spec := s.specs[name]
		infos = append(infos, APIInfo{
			Name:          name,
			BaseURL:       cfg.BaseURL,
			Description:   spec.Description,
			AuthType:      cfg.Auth.Type,
			EndpointCount: len(spec.Endpoints),
		})
	}
	return infos
}

// Get returns the configuration for one API.
func (s *Service) Get(name string) (config.APIConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[name]
	if !ok {
		return config.APIConfig{}, fmt.Errorf("%w: %s", domain.ErrAPINotFound, name)
	}
	return cfg, nil
}

// Spec returns the parsed spec for one API.
func (s *Service) Spec(name string) (domain.ParsedSpec, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spec, ok := s.specs[name]
	if !ok {
		return domain.ParsedSpec{}, fmt.Errorf("%w: %s", domain.ErrAPINotFound, name)
	}
	return spec, nil
}

// Endpoints returns the endpoint list for one API.
func (s *Service) Endpoints(name string) ([]domain.Endpoint, error) {
	spec, err := s.Spec(name)
	if err != nil {
		return nil, err
	}
	return spec.Endpoints, nil
}

// Names returns all registered API names in registration order.
func (s *Service) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}
