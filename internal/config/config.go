package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the specdex configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	HTTP      HTTPConfig      `yaml:"http"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	APIs      []APIConfig     `yaml:"apis"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds the operational HTTP server settings (health and
// metrics). Port 0 disables the server.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// FetchConfig bounds spec document retrieval.
type FetchConfig struct {
	TimeoutSec int `yaml:"timeout_sec"`
}

// SearchConfig selects the matcher strategy.
type SearchConfig struct {
	Provider            string  `yaml:"provider"` // lexical (default), semantic
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// EmbeddingConfig holds the embedding provider settings used by the
// semantic matcher.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// AuthConfig holds per-API authentication settings.
type AuthConfig struct {
	Type       string `yaml:"type"` // bearer, api_key, basic, none (default: none)
	Token      string `yaml:"token"`
	HeaderName string `yaml:"header_name"`
	APIKeyIn   string `yaml:"api_key_in"` // header (default), query
}

// APISettings holds per-API behavior settings.
type APISettings struct {
	DefaultPageSize    int   `yaml:"default_page_size"`
	MaxBatchSize       int   `yaml:"max_batch_size"`
	ConfirmDestructive *bool `yaml:"confirm_destructive"` // default: true
}

// ConfirmDestructiveEnabled reports whether destructive operations need
// explicit confirmation for this API.
func (s APISettings) ConfirmDestructiveEnabled() bool {
	return s.ConfirmDestructive == nil || *s.ConfirmDestructive
}

// APIConfig is the registration record of one upstream API.
type APIConfig struct {
	Name     string      `yaml:"name"`
	SpecURL  string      `yaml:"spec_url"` // URL or local file path
	BaseURL  string      `yaml:"base_url"`
	Auth     AuthConfig  `yaml:"auth"`
	Settings APISettings `yaml:"settings"`
}

// Load reads configuration from a YAML file by environment name (local,
// dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} and ${VAR:-default}
// references from the environment before unmarshaling. Auth tokens go
// through the same expansion, so secrets never live in the file.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable,
// defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Fetch.TimeoutSec <= 0 {
		c.Fetch.TimeoutSec = 30
	}
	if c.Search.Provider == "" {
		c.Search.Provider = "lexical"
	}
	if c.Search.ConfidenceThreshold <= 0 {
		c.Search.ConfidenceThreshold = 0.4
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	for i := range c.APIs {
		api := &c.APIs[i]
		if api.Auth.Type == "" {
			api.Auth.Type = "none"
		}
		if api.Auth.HeaderName == "" {
			api.Auth.HeaderName = "Authorization"
		}
		if api.Auth.APIKeyIn == "" {
			api.Auth.APIKeyIn = "header"
		}
		if api.Settings.DefaultPageSize <= 0 {
			api.Settings.DefaultPageSize = 20
		}
		if api.Settings.MaxBatchSize <= 0 {
			api.Settings.MaxBatchSize = 50
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 0 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Search.Provider {
	case "lexical", "semantic":
	default:
		return fmt.Errorf("search.provider must be \"lexical\" or \"semantic\", got %q", c.Search.Provider)
	}
	if c.Search.ConfidenceThreshold > 1 {
		return fmt.Errorf("search.confidence_threshold must be within [0, 1], got %v", c.Search.ConfidenceThreshold)
	}

	seen := map[string]bool{}
	for _, api := range c.APIs {
		if api.Name == "" {
			return fmt.Errorf("apis[].name is required")
		}
		if seen[api.Name] {
			return fmt.Errorf("duplicate api name %q", api.Name)
		}
		seen[api.Name] = true

		if api.SpecURL == "" {
			return fmt.Errorf("apis.%s.spec_url is required", api.Name)
		}
		switch api.Auth.Type {
		case "bearer", "api_key", "basic", "none":
		default:
			return fmt.Errorf(
				"apis.%s.auth.type must be one of bearer, api_key, basic, none, got %q",
				api.Name, api.Auth.Type,
			)
		}
		switch api.Auth.APIKeyIn {
		case "header", "query":
		default:
			return fmt.Errorf(
				"apis.%s.auth.api_key_in must be \"header\" or \"query\", got %q",
				api.Name, api.Auth.APIKeyIn,
			)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Explicit override
	if path := os.Getenv("SPECDEX_CONFIG"); path != "" {
		return path
	}

	// 2. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 3. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 4. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment
// variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
