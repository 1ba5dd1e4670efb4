// Package mcp exposes the catalog, search, and execution capabilities as
// MCP tools over stdio for AI assistants.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/harbormind/specdex/internal/usecase/execute"
	"github.com/harbormind/specdex/internal/usecase/guard"
	"github.com/harbormind/specdex/internal/usecase/registry"
	"github.com/harbormind/specdex/internal/usecase/search"
	"github.com/harbormind/specdex/internal/version"
)

// Server bridges MCP tool calls to the catalog, the matcher, and the
// per-API executors.
type Server struct {
	registry  *registry.Service
	matcher   search.Matcher
	guard     *guard.Guardrails
	executors map[string]*execute.Service
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer creates the MCP server and registers its tools.
func NewServer(
	reg *registry.Service,
	matcher search.Matcher,
	g *guard.Guardrails,
	executors map[string]*execute.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		registry:  reg,
		matcher:   matcher,
		guard:     g,
		executors: executors,
		logger:    logger,
		mcpServer: server.NewMCPServer(
			"specdex",
			version.Version,
			server.WithToolCapabilities(false),
		),
	}
	s.registerTools()
	return s
}

// Start serves the MCP protocol over stdio and blocks until the client
// closes the connection.
func (s *Server) Start() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	listAPIsTool := mcp.NewTool("list_apis",
		mcp.WithDescription("List all registered OpenAPI/Swagger APIs with their name, base URL, description, authentication type, and endpoint count"),
	)
	s.mcpServer.AddTool(listAPIsTool, s.handleListAPIs)

	searchTool := mcp.NewTool("search_endpoints",
		mcp.WithDescription("Search an API's endpoints by natural language description; returns full endpoint records with similarity scores"),
		mcp.WithString("api",
			mcp.Required(),
			mcp.Description("Name of the API to search (use list_apis to see available APIs)"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description of the endpoint you are looking for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 5)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearchEndpoints)

	executeTool := mcp.NewTool("execute_endpoint",
		mcp.WithDescription("Execute one API endpoint; destructive operations (DELETE, PUT, PATCH) require confirmed=true"),
		mcp.WithString("api",
			mcp.Required(),
			mcp.Description("Name of the API"),
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Endpoint path, e.g. \"/pets/{petId}\""),
		),
		mcp.WithString("method",
			mcp.Required(),
			mcp.Description("HTTP method (GET, POST, PUT, DELETE, PATCH)"),
		),
		mcp.WithObject("params",
			mcp.Description("Query and path parameters"),
		),
		mcp.WithObject("body",
			mcp.Description("Request body for POST/PUT/PATCH"),
		),
		mcp.WithObject("headers",
			mcp.Description("Additional request headers"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Response truncation limit (default: 20)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Pagination offset (default: 0)"),
		),
		mcp.WithBoolean("confirmed",
			mcp.Description("Must be true for destructive operations"),
		),
	)
	s.mcpServer.AddTool(executeTool, s.handleExecuteEndpoint)

	batchTool := mcp.NewTool("batch_execute",
		mcp.WithDescription("Execute multiple endpoints of one API in parallel or sequentially; always requires confirmed=true"),
		mcp.WithString("api",
			mcp.Required(),
			mcp.Description("Name of the API"),
		),
		mcp.WithArray("requests",
			mcp.Required(),
			mcp.Description("Request objects, each with path, method, and optional params/body/headers"),
		),
		mcp.WithBoolean("parallel",
			mcp.Description("Execute in parallel (default: true)"),
		),
		mcp.WithBoolean("confirmed",
			mcp.Description("Must be true to run the batch"),
		),
	)
	s.mcpServer.AddTool(batchTool, s.handleBatchExecute)
}
