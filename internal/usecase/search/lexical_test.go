package search

import (
	"context"
	"testing"

	"github.com/harbormind/specdex/internal/domain"
)

func petEndpoints() []domain.Endpoint {
	return []domain.Endpoint{
		{Path: "/pets", Method: "GET", OperationID: "listPets", Summary: "List all pets", Tags: []string{"pets"}},
		{Path: "/pets", Method: "POST", OperationID: "createPet", Summary: "Create a new pet", Tags: []string{"pets"}},
		{Path: "/pets/{petId}", Method: "GET", OperationID: "getPetById", Summary: "Get a pet by id", Tags: []string{"pets"}},
		{Path: "/pets/{petId}", Method: "DELETE", OperationID: "deletePet", Summary: "Delete a pet", Tags: []string{"pets"}},
		{Path: "/stores/inventory", Method: "GET", OperationID: "getInventory", Summary: "Returns store inventory"},
	}
}

func TestLexicalSearch_RanksRelevantFirst(t *testing.T) {
	m := NewLexical(0)
	results, err := m.Search(context.Background(), "create a new pet", petEndpoints(), 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[0].Endpoint.OperationID != "createPet" {
		t.Errorf("top result = %s, want createPet", results[0].Endpoint.OperationID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted descending at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}
}

func TestLexicalSearch_DeleteQuery(t *testing.T) {
	m := NewLexical(0)
	results, err := m.Search(context.Background(), "delete a pet", petEndpoints(), 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].Endpoint.Method != "DELETE" {
		t.Errorf("top result = %s %s, want the DELETE endpoint", results[0].Endpoint.Method, results[0].Endpoint.Path)
	}
}

func TestLexicalSearch_LiteralTextScoresHigh(t *testing.T) {
	endpoints := petEndpoints()
	m := NewLexical(0)

	// Querying with an endpoint's own searchable text is a near-perfect
	// token-set match.
	query := SearchableText(&endpoints[2])
	results, err := m.Search(context.Background(), query, endpoints, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].Endpoint.OperationID != "getPetById" {
		t.Fatalf("top result = %s", results[0].Endpoint.OperationID)
	}
	if results[0].Score < 0.9 {
		t.Errorf("self-match score = %v, want >= 0.9", results[0].Score)
	}
	if results[0].LowConfidence {
		t.Error("self-match flagged low confidence")
	}
}

func TestLexicalSearch_PathAndMethodQuery(t *testing.T) {
	m := NewLexical(0)

	// The raw method plus the literal path, braces and slashes included,
	// must land on the matching endpoint with a near-perfect score.
	results, err := m.Search(context.Background(), "GET /pets/{petId}", petEndpoints(), 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	top := results[0]
	if top.Endpoint.Method != "GET" || top.Endpoint.Path != "/pets/{petId}" {
		t.Fatalf("top result = %s %s", top.Endpoint.Method, top.Endpoint.Path)
	}
	if top.Score < 0.9 {
		t.Errorf("path+method query score = %v, want >= 0.9", top.Score)
	}
	if top.LowConfidence {
		t.Error("path+method query flagged low confidence")
	}
}

func TestLexicalSearch_GibberishIsLowConfidence(t *testing.T) {
	m := NewLexical(0.4)
	results, err := m.Search(context.Background(), "xyzabc123qwerty", petEndpoints(), 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range results {
		if !r.LowConfidence {
			t.Errorf("%s scored %v without the low-confidence flag", r.Endpoint.OperationID, r.Score)
		}
	}
}

func TestLexicalSearch_LimitCapsResults(t *testing.T) {
	m := NewLexical(0)
	endpoints := petEndpoints()

	results, err := m.Search(context.Background(), "pets", endpoints, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != len(endpoints) {
		t.Errorf("oversized limit returned %d results, want %d", len(results), len(endpoints))
	}

	results, err = m.Search(context.Background(), "pets", endpoints, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want 2", len(results))
	}
}

func TestLexicalSearch_TiesKeepCatalogOrder(t *testing.T) {
	endpoints := []domain.Endpoint{
		{Path: "/a", Method: "GET", Summary: "widget"},
		{Path: "/b", Method: "GET", Summary: "widget"},
		{Path: "/c", Method: "GET", Summary: "widget"},
	}
	m := NewLexical(0)

	results, err := m.Search(context.Background(), "widget", endpoints, -1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	paths := []string{results[0].Endpoint.Path, results[1].Endpoint.Path, results[2].Endpoint.Path}
	if paths[0] != "/a" || paths[1] != "/b" || paths[2] != "/c" {
		t.Errorf("tie order = %v, want catalog order", paths)
	}
}

func TestLexicalSearch_EmptyCatalog(t *testing.T) {
	m := NewLexical(0)
	results, err := m.Search(context.Background(), "anything", nil, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}
