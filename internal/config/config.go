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

// Config holds the iracify API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Cache     CacheConfig     `yaml:"cache"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
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

// SynthesisConfig holds the synthesis provider settings.
type SynthesisConfig struct {
	APIKey      string      `yaml:"api_key"`
	BaseURL     string      `yaml:"base_url"`
	Model       string      `yaml:"model"`
	Temperature float32     `yaml:"temperature"`
	TimeoutSec  int         `yaml:"timeout_sec"`
	Retry       RetryConfig `yaml:"retry"`
}

// RetryConfig holds the synthesis retry policy.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMS int `yaml:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms"`
	MaxJitterMS int `yaml:"max_jitter_ms"`
}

// PipelineConfig holds the candidate selection knobs.
type PipelineConfig struct {
	TopK             int `yaml:"top_k"`
	BlockMaxChars    int `yaml:"block_max_chars"`
	MinParentChars   int `yaml:"min_parent_chars"`
	ExcerptMaxChars  int `yaml:"excerpt_max_chars"`
	GistMaxChars     int `yaml:"gist_max_chars"`
	FallbackMaxFirst int `yaml:"fallback_max_first"`

	// Optional overrides for the built-in Dutch keyword sets.
	ScoringKeywords []string            `yaml:"scoring_keywords"`
	RoleKeywords    map[string][]string `yaml:"role_keywords"`
}

// CacheConfig holds summary cache settings.
type CacheConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Synthesis calls run well past the usual write window.
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Synthesis.Model == "" {
		c.Synthesis.Model = "gpt-4o-mini"
	}
	if c.Synthesis.TimeoutSec <= 0 {
		c.Synthesis.TimeoutSec = 60
	}
	if c.Synthesis.Retry.MaxAttempts <= 0 {
		c.Synthesis.Retry.MaxAttempts = 4
	}
	if c.Synthesis.Retry.BaseDelayMS <= 0 {
		c.Synthesis.Retry.BaseDelayMS = 2000
	}
	if c.Synthesis.Retry.MaxDelayMS <= 0 {
		c.Synthesis.Retry.MaxDelayMS = 20000
	}
	if c.Synthesis.Retry.MaxJitterMS <= 0 {
		c.Synthesis.Retry.MaxJitterMS = 750
	}
	if c.Pipeline.TopK <= 0 {
		c.Pipeline.TopK = 12
	}
	if c.Pipeline.BlockMaxChars <= 0 {
		c.Pipeline.BlockMaxChars = 1600
	}
	if c.Pipeline.MinParentChars <= 0 {
		c.Pipeline.MinParentChars = 220
	}
	if c.Pipeline.ExcerptMaxChars <= 0 {
		c.Pipeline.ExcerptMaxChars = 3000
	}
	if c.Pipeline.GistMaxChars <= 0 {
		c.Pipeline.GistMaxChars = 6000
	}
	if c.Pipeline.FallbackMaxFirst <= 0 {
		c.Pipeline.FallbackMaxFirst = 50
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 86400
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Synthesis.APIKey == "" {
		return fmt.Errorf("synthesis.api_key is required")
	}
	if c.Synthesis.Temperature < 0 || c.Synthesis.Temperature > 2 {
		return fmt.Errorf("synthesis.temperature must be between 0 and 2, got %g", c.Synthesis.Temperature)
	}
	if c.Pipeline.TopK < 3 || c.Pipeline.TopK > 24 {
		return fmt.Errorf("pipeline.top_k must be between 3 and 24, got %d", c.Pipeline.TopK)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache.enabled is true")
	}
	for role := range c.Pipeline.RoleKeywords {
		switch role {
		case "Rule", "Application", "Conclusion":
			// ok
		default:
			return fmt.Errorf(
				"pipeline.role_keywords key must be \"Rule\", \"Application\" or \"Conclusion\", got %q",
				role,
			)
		}
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
