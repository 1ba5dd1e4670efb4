package domain

// Parameter locations as they appear in OpenAPI documents.
const (
	InPath   = "path"
	InQuery  = "query"
	InHeader = "header"
	InCookie = "cookie"
	// InBody is Swagger 2.0 only; OpenAPI 3 moved the body into requestBody.
	InBody = "body"
)

// Parameter is a single operation parameter. Immutable once built.
type Parameter struct {
	Name        string         `json:"name"`
	Location    string         `json:"location"`
	Required    bool           `json:"required"`
	Description string         `json:"description,omitempty"`
	Schema      map[string]any `json:"schema,omitempty"`
}

// Endpoint is one (path, HTTP method) operation extracted from a spec,
// with parameters and schemas fully inlined. Immutable after extraction.
type Endpoint struct {
	Path              string         `json:"path"`
	Method            string         `json:"method"`
	Summary           string         `json:"summary,omitempty"`
	Description       string         `json:"description,omitempty"`
	OperationID       string         `json:"operation_id,omitempty"`
	Tags              []string       `json:"tags,omitempty"`
	Parameters        []Parameter    `json:"parameters"`
	RequestBodySchema map[string]any `json:"request_body_schema,omitempty"`
	ResponseSchema    map[string]any `json:"response_schema,omitempty"`
	Security          []any          `json:"security,omitempty"`
}

// Key is the catalog identity of the endpoint. Unique within one catalog;
// when a source document yields the same method+path twice, the
// last-extracted endpoint wins.
func (e *Endpoint) Key() string {
	return e.Method + ":" + e.Path
}

// ParsedSpec is the normalized output of one resolve call. It owns its
// endpoint list and is never mutated in place; re-registration replaces
// it wholesale.
type ParsedSpec struct {
	Title       string     `json:"title"`
	Version     string     `json:"version"`
	Description string     `json:"description,omitempty"`
	Endpoints   []Endpoint `json:"endpoints"`
}
