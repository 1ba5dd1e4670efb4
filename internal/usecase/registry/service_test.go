package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/harbormind/specdex/internal/config"
	"github.com/harbormind/specdex/internal/domain"
)

type mockFetcher struct {
	payloads map[string][]byte
	err      error
	calls    int
}

func (m *mockFetcher) Fetch(_ context.Context, source string) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	raw, ok := m.payloads[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSpecUnavailable, source)
	}
	return raw, nil
}

type mockResolver struct {
	specs map[string]domain.ParsedSpec
	err   error
}

func (m *mockResolver) Resolve(raw []byte) (domain.ParsedSpec, error) {
	if m.err != nil {
		return domain.ParsedSpec{}, m.err
	}
	spec, ok := m.specs[string(raw)]
	if !ok {
		return domain.ParsedSpec{}, domain.ErrSpecSyntax
	}
	return spec, nil
}

func petstoreService(t *testing.T) (*Service, *mockFetcher) {
	t.Helper()
	fetcher := &mockFetcher{payloads: map[string][]byte{
		"https://example.com/petstore.json": []byte("petstore"),
	}}
	resolver := &mockResolver{specs: map[string]domain.ParsedSpec{
		"petstore": {
			Title:       "Petstore",
			Version:     "1.0.0",
			Description: "A pet store",
			Endpoints: []domain.Endpoint{
				{Path: "/pets", Method: "GET"},
				{Path: "/pets", Method: "POST"},
			},
		},
	}}
	return New(fetcher, resolver, zap.NewNop()), fetcher
}

func petstoreConfig() config.APIConfig {
	return config.APIConfig{
		Name:    "petstore",
		SpecURL: "https://example.com/petstore.json",
		BaseURL: "https://example.com/v1",
		Auth:    config.AuthConfig{Type: "bearer", Token: "t"},
	}
}

func TestRegister_Success(t *testing.T) {
	svc, _ := petstoreService(t)
	svc.Register(context.Background(), petstoreConfig())

	spec, err := svc.Spec("petstore")
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.Title != "Petstore" || len(spec.Endpoints) != 2 {
		t.Errorf("spec = %+v", spec)
	}

	endpoints, err := svc.Endpoints("petstore")
	if err != nil {
		t.Fatalf("Endpoints: %v", err)
	}
	if len(endpoints) != 2 {
		t.Errorf("got %d endpoints", len(endpoints))
	}
}

func TestRegister_FetchFailureKeepsAPIListed(t *testing.T) {
	fetcher := &mockFetcher{err: fmt.Errorf("%w: connection refused", domain.ErrSpecUnavailable)}
	svc := New(fetcher, &mockResolver{}, zap.NewNop())

	svc.Register(context.Background(), petstoreConfig())

	// The API stays in the catalog with a placeholder spec.
	spec, err := svc.Spec("petstore")
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if len(spec.Endpoints) != 0 {
		t.Errorf("placeholder spec has %d endpoints", len(spec.Endpoints))
	}
	if spec.Version != "unknown" {
		t.Errorf("placeholder version = %q", spec.Version)
	}
	if !strings.Contains(spec.Description, "Failed to load spec") {
		t.Errorf("placeholder description = %q", spec.Description)
	}

	infos := svc.ListAPIs()
	if len(infos) != 1 || infos[0].EndpointCount != 0 {
		t.Errorf("ListAPIs = %+v", infos)
	}
}

func TestRegister_ParseFailureKeepsAPIListed(t *testing.T) {
	fetcher := &mockFetcher{payloads: map[string][]byte{
		"https://example.com/petstore.json": []byte("not a spec"),
	}}
	svc := New(fetcher, &mockResolver{err: domain.ErrSpecSyntax}, zap.NewNop())

	svc.Register(context.Background(), petstoreConfig())

	spec, err := svc.Spec("petstore")
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if !strings.Contains(spec.Description, "Failed to load spec") {
		t.Errorf("description = %q", spec.Description)
	}
}

func TestRegister_ReplacesExisting(t *testing.T) {
	svc, fetcher := petstoreService(t)
	cfg := petstoreConfig()

	svc.Register(context.Background(), cfg)
	fetcher.err = fmt.Errorf("%w: gone", domain.ErrSpecUnavailable)
	svc.Register(context.Background(), cfg)

	// Re-registration replaces the spec wholesale and keeps one catalog
	// entry.
	if names := svc.Names(); len(names) != 1 {
		t.Fatalf("Names = %v", names)
	}
	spec, _ := svc.Spec("petstore")
	if len(spec.Endpoints) != 0 {
		t.Errorf("old spec survived re-registration: %d endpoints", len(spec.Endpoints))
	}
}

func TestListAPIs_RegistrationOrder(t *testing.T) {
	fetcher := &mockFetcher{err: errors.New("offline")}
	svc := New(fetcher, &mockResolver{}, zap.NewNop())

	svc.RegisterAll(context.Background(), []config.APIConfig{
		{Name: "zeta", SpecURL: "u1"},
		{Name: "alpha", SpecURL: "u2"},
		{Name: "mid", SpecURL: "u3"},
	})

	infos := svc.ListAPIs()
	if len(infos) != 3 {
		t.Fatalf("got %d APIs", len(infos))
	}
	if infos[0].Name != "zeta" || infos[1].Name != "alpha" || infos[2].Name != "mid" {
		t.Errorf("order = %s, %s, %s", infos[0].Name, infos[1].Name, infos[2].Name)
	}
}

func TestGet_UnknownAPI(t *testing.T) {
	svc, _ := petstoreService(t)

	if _, err := svc.Get("nope"); !errors.Is(err, domain.ErrAPINotFound) {
		t.Errorf("Get err = %v, want ErrAPINotFound", err)
	}
	if _, err := svc.Spec("nope"); !errors.Is(err, domain.ErrAPINotFound) {
		t.Errorf("Spec err = %v, want ErrAPINotFound", err)
	}
	if _, err := svc.Endpoints("nope"); !errors.Is(err, domain.ErrAPINotFound) {
		t.Errorf("Endpoints err = %v, want ErrAPINotFound", err)
	}
}

func TestGet_ReturnsConfig(t *testing.T) {
	svc, _ := petstoreService(t)
	svc.Register(context.Background(), petstoreConfig())

	cfg, err := svc.Get("petstore")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cfg.BaseURL != "https://example.com/v1" || cfg.Auth.Type != "bearer" {
		t.Errorf("cfg = %+v", cfg)
	}
}
