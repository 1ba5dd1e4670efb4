package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/harbormind/specdex/internal/usecase/execute"
)

func (s *Server) handleListAPIs(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.registry.ListAPIs())
}

func (s *Server) handleSearchEndpoints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	api, err := request.RequireString("api")
	if err != nil {
		return mcp.NewToolResultError("api argument is required"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required"), nil
	}
	limit := intArg(request, "limit", 5)
	if limit < 1 {
		return mcp.NewToolResultError("limit must be a positive integer"), nil
	}

	endpoints, err := s.registry.Endpoints(api)
	if err != nil {
		return s.unknownAPI(api), nil
	}

	results, err := s.matcher.Search(ctx, query, endpoints, limit)
	if err != nil {
		s.logger.Error("Search failed", zap.String("api", api), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"api":           api,
		"query":         query,
		"results":       results,
		"total_results": len(results),
	})
}

func (s *Server) handleExecuteEndpoint(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	api, err := request.RequireString("api")
	if err != nil {
		return mcp.NewToolResultError("api argument is required"), nil
	}
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("path argument is required"), nil
	}
	method, err := request.RequireString("method")
	if err != nil {
		return mcp.NewToolResultError("method argument is required"), nil
	}

	executor, ok := s.executors[api]
	if !ok {
		return s.unknownAPI(api), nil
	}

	confirmed := boolArg(request, "confirmed", false)
	if s.confirmationRequired(api) {
		if verdict := s.guard.Check(method, path, confirmed); !verdict.Allowed {
			return jsonResult(map[string]any{
				"status_code":         0,
				"data":                nil,
				"destructive_warning": verdict.Warning,
				"hint":                "Set confirmed=true to proceed with this destructive operation",
			})
		}
	}

	req := execute.Request{
		Path:    path,
		Method:  method,
		Params:  mapArg(request, "params"),
		Body:    mapArg(request, "body"),
		Headers: stringMapArg(request, "headers"),
		Limit:   intArg(request, "limit", 20),
		Offset:  intArg(request, "offset", 0),
	}

	return jsonResult(executor.Execute(ctx, req))
}

func (s *Server) handleBatchExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	api, err := request.RequireString("api")
	if err != nil {
		return mcp.NewToolResultError("api argument is required"), nil
	}

	executor, ok := s.executors[api]
	if !ok {
		return s.unknownAPI(api), nil
	}

	requests, err := batchRequests(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid requests argument: %v", err)), nil
	}
	if len(requests) == 0 {
		return mcp.NewToolResultError("requests must be a non-empty array"), nil
	}
	if cfg, cfgErr := s.registry.Get(api); cfgErr == nil && len(requests) > cfg.Settings.MaxBatchSize {
		return mcp.NewToolResultError(fmt.Sprintf(
			"batch of %d requests exceeds the maximum of %d", len(requests), cfg.Settings.MaxBatchSize,
		)), nil
	}

	// Batches touch many endpoints at once, so they always need an
	// explicit confirmation regardless of the methods involved.
	if !boolArg(request, "confirmed", false) {
		operations := make([]string, 0, len(requests))
		for _, r := range requests {
			operations = append(operations, fmt.Sprintf("%s %s", r.Method, r.Path))
		}
		return jsonResult(map[string]any{
			"confirmation_required": true,
			"operations":            operations,
			"total_operations":      len(requests),
			"hint":                  "Set confirmed=true to execute these operations",
		})
	}

	batch := execute.NewBatch(executor, execute.DefaultConcurrency)
	result := batch.Execute(ctx, requests, boolArg(request, "parallel", true))
	return jsonResult(result)
}

// confirmationRequired honors the per-API confirm_destructive setting.
func (s *Server) confirmationRequired(api string) bool {
	cfg, err := s.registry.Get(api)
	if err != nil {
		return true
	}
	return cfg.Settings.ConfirmDestructiveEnabled()
}

func (s *Server) unknownAPI(api string) *mcp.CallToolResult {
	payload, err := json.Marshal(map[string]any{
		"error":          fmt.Sprintf("API %q not found", api),
		"available_apis": s.registry.Names(),
		"hint":           "Use list_apis to see all available APIs",
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API %q not found", api))
	}
	return mcp.NewToolResultError(string(payload))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// batchRequests decodes the "requests" argument through a JSON
// round-trip into typed execute requests.
func batchRequests(request mcp.CallToolRequest) ([]execute.Request, error) {
	raw, ok := request.GetArguments()["requests"]
	if !ok {
		return nil, errors.New("requests argument is required")
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var requests []execute.Request
	if err := json.Unmarshal(encoded, &requests); err != nil {
		return nil, err
	}
	for i, r := range requests {
		if r.Path == "" || r.Method == "" {
			return nil, fmt.Errorf("request [%d] is missing path or method", i)
		}
	}
	return requests, nil
}

func intArg(request mcp.CallToolRequest, key string, fallback int) int {
	if v, ok := request.GetArguments()[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return fallback
}

func boolArg(request mcp.CallToolRequest, key string, fallback bool) bool {
	if v, ok := request.GetArguments()[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

func mapArg(request mcp.CallToolRequest, key string) map[string]any {
	m, _ := request.GetArguments()[key].(map[string]any)
	return m
}

func stringMapArg(request mcp.CallToolRequest, key string) map[string]string {
	raw, ok := request.GetArguments()[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
