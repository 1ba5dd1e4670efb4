package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/harbormind/specdex/internal/config"
	logpkg "github.com/harbormind/specdex/internal/logger"
	"github.com/harbormind/specdex/internal/metrics"
	"github.com/harbormind/specdex/internal/repository/specsource"
	"github.com/harbormind/specdex/internal/resolver"
	mcpTransport "github.com/harbormind/specdex/internal/transport/mcp"
	openaiEmb "github.com/harbormind/specdex/internal/transport/openai"
	"github.com/harbormind/specdex/internal/transport/ops"
	"github.com/harbormind/specdex/internal/usecase/execute"
	"github.com/harbormind/specdex/internal/usecase/guard"
	"github.com/harbormind/specdex/internal/usecase/registry"
	"github.com/harbormind/specdex/internal/usecase/search"
	"github.com/harbormind/specdex/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting specdex",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("search_provider", searchProvider(cfg)),
		zap.Int("apis", len(cfg.APIs)),
	)

	// Register metrics explicitly (no init()).
	metrics.Register()

	// Catalog: fetch and resolve every configured spec up front.
	fetcher := specsource.New(time.Duration(cfg.Fetch.TimeoutSec) * time.Second)
	reg := registry.New(fetcher, resolver.New(), logger)
	reg.RegisterAll(context.Background(), cfg.APIs)

	// One executor per registered API.
	executors := make(map[string]*execute.Service, len(cfg.APIs))
	for _, api := range cfg.APIs {
		executors[api.Name] = execute.New(api, logger)
	}

	matcher := buildMatcher(cfg, logger)
	mcpServer := mcpTransport.NewServer(reg, matcher, guard.New(), executors, logger)

	// Optional ops sidecar for health and metrics.
	var opsServer *ops.Server
	if cfg.HTTP.Port > 0 {
		opsServer = ops.New(cfg.HTTP, reg, logger)
		go func() {
			if err := opsServer.Start(); err != nil {
				logger.Error("Ops server stopped", zap.Error(err))
			}
		}()
	}

	// Blocks until the MCP client closes stdio.
	if err := mcpServer.Start(); err != nil {
		logger.Error("MCP server stopped", zap.Error(err))
	}

	if opsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := opsServer.Shutdown(ctx); err != nil {
			logger.Error("Ops server shutdown failed", zap.Error(err))
		}
	}
}

// searchProvider lets SPECDEX_SEARCH_PROVIDER override the configured
// strategy without editing the config file.
func searchProvider(cfg config.Config) string {
	if p := os.Getenv("SPECDEX_SEARCH_PROVIDER"); p != "" {
		return p
	}
	return cfg.Search.Provider
}

// buildMatcher selects the search strategy. The semantic matcher defers
// embedder construction to its first search, so a misconfigured
// embedding provider only fails when semantic search is actually used.
func buildMatcher(cfg config.Config, logger *zap.Logger) search.Matcher {
	threshold := cfg.Search.ConfidenceThreshold

	if searchProvider(cfg) == "semantic" {
		logger.Info("Using semantic search", zap.String("model", cfg.Embedding.Model))
		factory := func() (search.Embedder, error) {
			embedder, err := openaiEmb.NewEmbedder(&openaiEmb.Config{
				APIKey:     cfg.Embedding.APIKey,
				BaseURL:    cfg.Embedding.BaseURL,
				Model:      cfg.Embedding.Model,
				Dimensions: cfg.Embedding.Dimensions,
				Logger:     logger,
			})
			if err != nil {
				return nil, err
			}
			return embedder, nil
		}
		return search.NewSemantic(factory, threshold)
	}

	logger.Info("Using lexical search")
	return search.NewLexical(threshold)
}
