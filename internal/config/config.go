package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the ghcount collector configuration.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	GitHub    GitHubConfig    `yaml:"github"`
	Collector CollectorConfig `yaml:"collector"`
	Output    OutputConfig    `yaml:"output"`
	Redis     RedisConfig     `yaml:"redis"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Search backends.
const (
	BackendCLI = "cli"
	BackendAPI = "api"
)

// GitHubConfig selects and configures the code search backend.
type GitHubConfig struct {
	Backend string `yaml:"backend"` // cli (default), api
	GHPath  string `yaml:"gh_path"` // cli only
	Token   string `yaml:"token"`   // api only, optional
	BaseURL string `yaml:"base_url"`
	PerPage int    `yaml:"per_page"`
}

// CollectorConfig holds the run driver and retry settings.
type CollectorConfig struct {
	Fragments   []string `yaml:"fragments"`
	MaxAttempts int      `yaml:"max_attempts"`
	IntervalSec int      `yaml:"interval_sec"` // 0 = single run and exit
}

// OutputConfig holds the ndjson sink settings.
type OutputConfig struct {
	Path string `yaml:"path"` // empty or "-" = stdout
}

// RedisConfig holds the optional stream mirror settings. Empty addrs disables the mirror.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	StreamKey        string   `yaml:"stream_key"`
	MaxLen           int64    `yaml:"max_len"` // 0 = untrimmed
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether the redis mirror is configured.
func (r RedisConfig) Enabled() bool {
	return len(r.Addrs) > 0
}

// HTTPConfig holds ops server settings. Port 0 disables the server.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	MetricsTokens   []string `yaml:"metrics_tokens"`
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
	if c.GitHub.Backend == "" {
		c.GitHub.Backend = BackendCLI
	}
	if c.GitHub.GHPath == "" {
		c.GitHub.GHPath = "gh"
	}
	if c.GitHub.PerPage <= 0 {
		c.GitHub.PerPage = 1
	}
	if c.Collector.MaxAttempts <= 0 {
		c.Collector.MaxAttempts = 8
	}
	if c.Redis.StreamKey == "" {
		c.Redis.StreamKey = "ghcount:records"
	}
	if c.Redis.ReadinessTimeout <= 0 {
		c.Redis.ReadinessTimeout = 10
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.GitHub.Backend {
	case BackendCLI, BackendAPI:
	default:
		return fmt.Errorf("github.backend must be %q or %q, got %q", BackendCLI, BackendAPI, c.GitHub.Backend)
	}
	if c.GitHub.PerPage > 100 {
		return fmt.Errorf("github.per_page must be between 1 and 100, got %d", c.GitHub.PerPage)
	}
	for i, f := range c.Collector.Fragments {
		if f == "" {
			return fmt.Errorf("collector.fragments[%d] must not be empty", i)
		}
	}
	if c.Collector.IntervalSec < 0 {
		return fmt.Errorf("collector.interval_sec must not be negative, got %d", c.Collector.IntervalSec)
	}
	if c.Redis.MaxLen < 0 {
		return fmt.Errorf("redis.max_len must not be negative, got %d", c.Redis.MaxLen)
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 0 and 65535, got %d", c.HTTP.Port)
	}
	return nil
}

// Interval returns the scheduler interval; zero means a single run.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Collector.IntervalSec) * time.Second
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
