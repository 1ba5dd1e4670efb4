package resolver

import "strings"

const (
	oas3SchemaPrefix     = "#/components/schemas/"
	swagger2SchemaPrefix = "#/definitions/"
)

// refResolver inlines $ref pointers against a single decoded document.
//
// active tracks the pointers on the current walk path. Re-entering a
// pointer already on the path returns the reference marker unresolved,
// which is what terminates self-referential schemas.
type refResolver struct {
	doc map[string]any

	// components is the document's reusable schema table, keyed by bare
	// schema name; componentsPrefix is the pointer prefix it serves.
	components       map[string]any
	componentsPrefix string

	active map[string]struct{}
}

func newRefResolver(doc map[string]any) *refResolver {
	r := &refResolver{doc: doc, active: map[string]struct{}{}}
	r.components, r.componentsPrefix = componentTable(doc)
	return r
}

// componentTable returns the document's schema table and the $ref prefix
// it answers for: OpenAPI 3 components.schemas, falling back to Swagger 2
// definitions when the former is absent or empty.
func componentTable(doc map[string]any) (map[string]any, string) {
	if components := asMap(doc["components"]); components != nil {
		if schemas := asMap(components["schemas"]); len(schemas) > 0 {
			return schemas, oas3SchemaPrefix
		}
	}
	return asMap(doc["definitions"]), swagger2SchemaPrefix
}

// resolve walks v depth-first, replacing every resolvable $ref with its
// inlined target. It recurses into all nested mappings and sequences, not
// only known schema fields. Resolving an already ref-free value returns
// it unchanged, and unresolvable pointers degrade to the original
// reference object.
func (r *refResolver) resolve(v any) any {
	switch val := v.(type) {
	case map[string]any:
		ref, ok := val["$ref"].(string)
		if !ok {
			out := make(map[string]any, len(val))
			for k, child := range val {
				out[k] = r.resolve(child)
			}
			return out
		}
		if !strings.HasPrefix(ref, "#/") {
			return val
		}
		if _, onPath := r.active[ref]; onPath {
			// Cycle: short-circuit with the unresolved marker.
			return val
		}
		target, found := r.lookup(ref)
		if !found {
			return val
		}
		r.active[ref] = struct{}{}
		resolved := r.resolve(target)
		delete(r.active, ref)
		return resolved
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = r.resolve(item)
		}
		return out
	default:
		return v
	}
}

// lookup navigates a "#/a/b/c" pointer one segment at a time from the
// document root. Pointers into the schema table hit it directly; anything
// else walks the document generically.
func (r *refResolver) lookup(ref string) (any, bool) {
	if name, found := strings.CutPrefix(ref, r.componentsPrefix); found && !strings.Contains(name, "/") {
		if def, exists := r.components[name]; exists {
			return def, true
		}
	}

	var current any = r.doc
	for _, part := range strings.Split(ref[2:], "/") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// asMap coerces a decoded document value to a string-keyed map, returning
// nil for anything else.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// asSlice coerces a decoded document value to a sequence, returning nil
// for anything else.
func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}
