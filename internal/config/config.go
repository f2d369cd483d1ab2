package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// MCP transports.
const (
	MCPTransportStdio = "stdio"
	MCPTransportHTTP  = "http"
)

// Config holds the simdex service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	MCP        MCPConfig        `yaml:"mcp"`
	Database   DatabaseConfig   `yaml:"database"`
	GLPI       GLPIConfig       `yaml:"glpi"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Cache      CacheConfig      `yaml:"cache"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Transport        string `yaml:"transport"` // stdio, http (default: stdio)
	Path             string `yaml:"path"`      // mount path for the streamable HTTP handler
	ResponseMaxBytes int    `yaml:"response_max_bytes"`
}

// DatabaseConfig holds cache database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, none (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// GLPIConfig holds GLPI REST API settings. An empty BaseURL disables the ticket source.
type GLPIConfig struct {
	BaseURL    string `yaml:"base_url"`
	AppToken   string `yaml:"app_token"`
	UserToken  string `yaml:"user_token"`
	TimeoutSec int    `yaml:"timeout_sec"`
	PageSize   int    `yaml:"page_size"`
	VerifyTLS  *bool  `yaml:"verify_tls"`
}

// Enabled reports whether a GLPI server is configured.
func (g *GLPIConfig) Enabled() bool { return g.BaseURL != "" }

// InsecureSkipVerify reports whether TLS verification was explicitly disabled.
func (g *GLPIConfig) InsecureSkipVerify() bool { return g.VerifyTLS != nil && !*g.VerifyTLS }

// SimilarityConfig holds ranking engine settings.
type SimilarityConfig struct {
	Threshold      *float64      `yaml:"threshold"`
	MaxResults     int           `yaml:"max_results"`
	MaxItems       int           `yaml:"max_items"`
	Workers        int           `yaml:"workers"`
	TaskTimeoutSec int           `yaml:"task_timeout_sec"`
	Anonymize      bool          `yaml:"anonymize"`
	Weights        WeightsConfig `yaml:"weights"`
}

// WeightsConfig holds the combined score weights. All zero means defaults.
type WeightsConfig struct {
	Sequence   float64 `yaml:"sequence"`
	Cosine     float64 `yaml:"cosine"`
	Jaccard    float64 `yaml:"jaccard"`
	TitleBonus float64 `yaml:"title_bonus"`
}

// CacheConfig holds ticket cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates raw YAML.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.MCP.Transport == "" {
		c.MCP.Transport = MCPTransportStdio
	}
	if c.MCP.Path == "" {
		c.MCP.Path = "/mcp"
	}
	if c.MCP.ResponseMaxBytes <= 0 {
		c.MCP.ResponseMaxBytes = 51200
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverNone
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.GLPI.TimeoutSec <= 0 {
		c.GLPI.TimeoutSec = 30
	}
	if c.GLPI.PageSize <= 0 {
		c.GLPI.PageSize = 50
	}
	if c.Similarity.Threshold == nil {
		t := 0.3
		c.Similarity.Threshold = &t
	}
	if c.Similarity.MaxResults <= 0 {
		c.Similarity.MaxResults = 10
	}
	if c.Similarity.MaxItems <= 0 {
		c.Similarity.MaxItems = 200
	}
	if c.Similarity.Workers == 0 {
		c.Similarity.Workers = 2
	}
	if c.Similarity.TaskTimeoutSec <= 0 {
		c.Similarity.TaskTimeoutSec = 30
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 300
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.MCP.Transport {
	case MCPTransportStdio, MCPTransportHTTP:
	default:
		return fmt.Errorf("mcp.transport must be %q or %q, got %q", MCPTransportStdio, MCPTransportHTTP, c.MCP.Transport)
	}
	if !strings.HasPrefix(c.MCP.Path, "/") {
		return fmt.Errorf("mcp.path must start with /, got %q", c.MCP.Path)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverNone:
		if c.Cache.Enabled {
			return fmt.Errorf("cache.enabled requires a database driver")
		}
	default:
		return fmt.Errorf("database.driver must be valkey, redis or none, got %q", c.Database.Driver)
	}
	if c.GLPI.Enabled() && (c.GLPI.AppToken == "" || c.GLPI.UserToken == "") {
		return fmt.Errorf("glpi.app_token and glpi.user_token are required when glpi.base_url is set")
	}
	if t := *c.Similarity.Threshold; math.IsNaN(t) || t < 0 || t > 1 {
		return fmt.Errorf("similarity.threshold must be within [0, 1], got %v", t)
	}
	if c.Similarity.Workers < 1 {
		return fmt.Errorf("similarity.workers must be at least 1, got %d", c.Similarity.Workers)
	}
	return c.Similarity.Weights.validate()
}

func (w WeightsConfig) validate() error {
	if w == (WeightsConfig{}) {
		return nil
	}
	for name, v := range map[string]float64{
		"sequence":    w.Sequence,
		"cosine":      w.Cosine,
		"jaccard":     w.Jaccard,
		"title_bonus": w.TitleBonus,
	} {
		if v < 0 {
			return fmt.Errorf("similarity.weights.%s must be non-negative, got %v", name, v)
		}
	}
	if sum := w.Sequence + w.Cosine + w.Jaccard + w.TitleBonus; math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("similarity.weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
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
