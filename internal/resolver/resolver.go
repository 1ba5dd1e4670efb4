// Package resolver parses OpenAPI 3.x and Swagger 2.0 documents into a
// flat, fully-inlined endpoint list. It performs no I/O: raw text in,
// normalized spec out.
package resolver

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harbormind/specdex/internal/domain"
)

// httpMethods are the verbs inspected under each path entry, in the order
// endpoints are emitted for a single path.
var httpMethods = []string{"get", "post", "put", "delete", "patch", "head", "options", "trace"}

// Resolver turns raw specification text into a domain.ParsedSpec.
type Resolver struct{}

// New creates a resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve parses rawText as JSON or YAML and extracts every endpoint with
// its parameters and schemas inlined. The only fatal failure is text that
// is neither valid JSON nor valid YAML; individual unresolvable $refs
// degrade per field to the unresolved literal.
func (r *Resolver) Resolve(rawText []byte) (domain.ParsedSpec, error) {
	doc, err := decodeDocument(rawText)
	if err != nil {
		return domain.ParsedSpec{}, err
	}

	info := asMap(doc["info"])
	spec := domain.ParsedSpec{
		Title:       stringOr(info["title"], "Unknown API"),
		Version:     stringOr(info["version"], "1.0.0"),
		Description: stringOr(info["description"], ""),
	}

	refs := newRefResolver(doc)
	spec.Endpoints = extractEndpoints(doc, refs)
	return spec, nil
}

// decodeDocument attempts a JSON parse first and falls back to YAML.
func decodeDocument(rawText []byte) (map[string]any, error) {
	var doc map[string]any
	if err := json.Unmarshal(rawText, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(rawText, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrSpecSyntax, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", domain.ErrSpecSyntax)
	}
	return doc, nil
}

// extractEndpoints walks every path entry and every HTTP verb present
// under it. Paths are visited in sorted order so catalog order is stable
// across runs; a repeated method+path overwrites the earlier extraction
// (last-write-wins, a quirk of loose source documents).
func extractEndpoints(doc map[string]any, refs *refResolver) []domain.Endpoint {
	paths := asMap(doc["paths"])

	pathKeys := make([]string, 0, len(paths))
	for p := range paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	var endpoints []domain.Endpoint
	seen := map[string]int{}

	for _, path := range pathKeys {
		item := asMap(paths[path])
		if item == nil {
			continue
		}
		pathParams := asSlice(item["parameters"])

		for _, method := range httpMethods {
			op := asMap(item[method])
			if op == nil {
				continue
			}
			ep := buildEndpoint(path, method, op, pathParams, refs)
			if i, dup := seen[ep.Key()]; dup {
				endpoints[i] = ep
				continue
			}
			seen[ep.Key()] = len(endpoints)
			endpoints = append(endpoints, ep)
		}
	}
	return endpoints
}

// buildEndpoint assembles one endpoint from an operation object. The
// path-level parameter list is concatenated with the operation-level one
// without deduplication, matching how loose source specs are written.
func buildEndpoint(path, method string, op map[string]any, pathParams []any, refs *refResolver) domain.Endpoint {
	allParams := make([]any, 0, len(pathParams))
	allParams = append(allParams, pathParams...)
	allParams = append(allParams, asSlice(op["parameters"])...)

	params := make([]domain.Parameter, 0, len(allParams))
	for _, raw := range allParams {
		p := asMap(refs.resolve(raw))
		if p == nil {
			continue
		}
		params = append(params, domain.Parameter{
			Name:        stringOr(p["name"], ""),
			Location:    stringOr(p["in"], domain.InQuery),
			Required:    boolOr(p["required"]),
			Description: stringOr(p["description"], ""),
			Schema:      asMap(refs.resolve(p["schema"])),
		})
	}

	return domain.Endpoint{
		Path:              path,
		Method:            strings.ToUpper(method),
		Summary:           stringOr(op["summary"], ""),
		Description:       stringOr(op["description"], ""),
		OperationID:       stringOr(op["operationId"], ""),
		Tags:              stringSlice(op["tags"]),
		Parameters:        params,
		RequestBodySchema: requestBodySchema(op, allParams, refs),
		ResponseSchema:    responseSchema(op, refs),
		Security:          asSlice(op["security"]),
	}
}

// requestBodySchema prefers the OpenAPI 3 requestBody JSON content schema
// and falls back to a Swagger 2 body parameter's schema.
func requestBodySchema(op map[string]any, allParams []any, refs *refResolver) map[string]any {
	if body := asMap(op["requestBody"]); len(body) > 0 {
		resolved := asMap(refs.resolve(body))
		content := asMap(resolved["content"])
		if jsonContent := asMap(content["application/json"]); len(jsonContent) > 0 {
			if schema := asMap(refs.resolve(jsonContent["schema"])); schema != nil {
				return schema
			}
		}
	}

	for _, raw := range allParams {
		p := asMap(refs.resolve(raw))
		if p == nil || stringOr(p["in"], "") != domain.InBody {
			continue
		}
		return asMap(refs.resolve(p["schema"]))
	}
	return nil
}

// responseSchema inspects success responses in priority order 200, 201,
// default; the first present, non-empty entry wins. The JSON content
// schema covers OpenAPI 3 and an inline schema field covers Swagger 2.
func responseSchema(op map[string]any, refs *refResolver) map[string]any {
	responses := asMap(op["responses"])

	var success map[string]any
	for _, code := range []string{"200", "201", "default"} {
		if resp := asMap(responses[code]); len(resp) > 0 {
			success = resp
			break
		}
	}
	if success == nil {
		return nil
	}

	resolved := asMap(refs.resolve(success))
	content := asMap(resolved["content"])
	if jsonContent := asMap(content["application/json"]); len(jsonContent) > 0 {
		return asMap(refs.resolve(jsonContent["schema"]))
	}
	if schema, ok := resolved["schema"]; ok {
		return asMap(refs.resolve(schema))
	}
	return nil
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func boolOr(v any) bool {
	b, _ := v.(bool)
	return b
}

func stringSlice(v any) []string {
	raw := asSlice(v)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
