// Package execute issues HTTP requests against a registered API's base
// URL on behalf of the calling agent.
package execute

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harbormind/specdex/internal/config"
)

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 30 * time.Second

var pathParamPattern = regexp.MustCompile(`\{(\w+)\}`)

// Request describes one endpoint invocation. Params covers both path and
// query parameters; path placeholders are substituted and the rest become
// the query string. Limit > 0 requests pagination and truncates list
// responses client-side.
type Request struct {
	Path    string            `json:"path"`
	Method  string            `json:"method"`
	Params  map[string]any    `json:"params,omitempty"`
	Body    map[string]any    `json:"body,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Limit   int               `json:"limit,omitempty"`
	Offset  int               `json:"offset,omitempty"`
}

// Result is the outcome of one invocation. Transport failures land here
// as StatusCode 0 plus an error text, never as a panic or a bare error.
type Result struct {
	RequestID  string `json:"request_id"`
	StatusCode int    `json:"status_code"`
	Data       any    `json:"data"`
	TotalCount int    `json:"total_count,omitempty"`
	Truncated  bool   `json:"truncated"`
	AuthError  bool   `json:"auth_error"`
	Error      string `json:"error,omitempty"`
}

// Service executes endpoints of a single registered API.
type Service struct {
	cfg     config.APIConfig
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// New creates an executor for one API.
func New(cfg config.APIConfig, logger *zap.Logger) *Service {
	return &Service{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  logger,
	}
}

// Execute runs one request and reports the outcome.
func (s *Service) Execute(ctx context.Context, req Request) Result {
	result := Result{RequestID: uuid.NewString()}

	httpReq, err := s.buildRequest(ctx, req)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		result.Error = transportError(err, s.baseURL)
		return result
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result.Error = fmt.Sprintf("read response: %v", err)
		return result
	}

	result.StatusCode = resp.StatusCode
	result.AuthError = resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		data = string(body)
	}

	// Truncate list responses client-side when pagination was requested.
	if list, ok := data.([]any); ok && req.Limit > 0 {
		result.TotalCount = len(list)
		if len(list) > req.Limit {
			data = list[:req.Limit]
			result.Truncated = true
		}
	}
	result.Data = data

	if resp.StatusCode >= http.StatusBadRequest {
		result.Error = upstreamError(resp.StatusCode, data)
	}
	return result
}

func (s *Service) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	fullURL := s.baseURL + substitutePath(req.Path, req.Params)

	query := url.Values{}
	pathParams := pathParamNames(req.Path)
	for name, value := range req.Params {
		if pathParams[name] {
			continue
		}
		query.Set(name, fmt.Sprint(value))
	}
	if req.Limit > 0 {
		query.Set("limit", fmt.Sprint(req.Limit))
		query.Set("offset", fmt.Sprint(req.Offset))
	}
	if auth := s.cfg.Auth; auth.Type == "api_key" && auth.APIKeyIn == "query" {
		query.Set(auth.HeaderName, auth.Token)
	}
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, strings.ToUpper(req.Method), fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for name, value := range s.authHeaders() {
		httpReq.Header.Set(name, value)
	}
	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}
	return httpReq, nil
}

// substitutePath replaces {name} placeholders with their parameter
// values; placeholders without a matching parameter stay literal.
func substitutePath(path string, params map[string]any) string {
	return pathParamPattern.ReplaceAllStringFunc(path, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := params[name]; ok {
			return fmt.Sprint(value)
		}
		return match
	})
}

func pathParamNames(path string) map[string]bool {
	names := map[string]bool{}
	for _, match := range pathParamPattern.FindAllStringSubmatch(path, -1) {
		names[match[1]] = true
	}
	return names
}

// authHeaders builds authentication and content headers from the API
// configuration.
func (s *Service) authHeaders() map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}

	auth := s.cfg.Auth
	switch auth.Type {
	case "bearer":
		headers[auth.HeaderName] = "Bearer " + auth.Token
	case "api_key":
		if auth.APIKeyIn == "header" {
			headers[auth.HeaderName] = auth.Token
		}
	case "basic":
		// Token is "username:password".
		headers[auth.HeaderName] = "Basic " + base64.StdEncoding.EncodeToString([]byte(auth.Token))
	}
	return headers
}

func transportError(err error, baseURL string) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "Request timed out"
	}
	return fmt.Sprintf("Connection error: could not reach %s: %v", baseURL, err)
}

// upstreamError pulls a readable message out of a JSON error body,
// checking the common "message" and "detail" fields.
func upstreamError(status int, data any) string {
	if m, ok := data.(map[string]any); ok {
		if msg, ok := m["message"].(string); ok && msg != "" {
			return msg
		}
		if detail, ok := m["detail"].(string); ok && detail != "" {
			return detail
		}
	}
	if s, ok := data.(string); ok && s != "" {
		return s
	}
	return fmt.Sprintf("HTTP %d", status)
}
