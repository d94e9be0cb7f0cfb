package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported database drivers and plan providers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Planner   PlannerConfig   `yaml:"planner"`
	Auth      AuthConfig      `yaml:"auth"`
	Worker    WorkerConfig    `yaml:"worker"`
	Cache     CacheConfig     `yaml:"cache"`
	CORS      CORSConfig      `yaml:"cors"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains session store settings.
// Path is used by the sqlite driver, DSN by postgres.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"-"` // env-only, may carry credentials
}

// PlannerConfig contains plan generation service settings.
type PlannerConfig struct {
	Provider     string   `yaml:"provider"`
	Model        string   `yaml:"model"`
	MaxAttempts  int      `yaml:"max_attempts"`
	RetryBase    Duration `yaml:"retry_base"`
	Timeout      Duration `yaml:"timeout"`
	OpenAIAPIKey string   `yaml:"-"` // env-only, never in YAML
	GeminiAPIKey string   `yaml:"-"` // env-only, never in YAML
}

// APIKey returns the key for the configured provider.
func (p PlannerConfig) APIKey() string {
	if p.Provider == ProviderGemini {
		return p.GeminiAPIKey
	}
	return p.OpenAIAPIKey
}

// maxBudget caps Budget so large attempt counts cannot overflow.
const maxBudget = 24 * time.Hour

// Budget is the worst case a plan request can spend in the generator: every
// attempt running to Timeout plus the exponential waits between attempts.
func (p PlannerConfig) Budget() time.Duration {
	var total time.Duration
	wait := time.Duration(p.RetryBase)
	for i := 0; i < p.MaxAttempts; i++ {
		total += time.Duration(p.Timeout)
		if i > 0 {
			total += wait
			wait *= 2
		}
		if total >= maxBudget {
			return maxBudget
		}
	}
	return total
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// WorkerConfig contains background worker settings.
type WorkerConfig struct {
	SessionPurgeInterval Duration `yaml:"session_purge_interval"`
	SessionTTL           Duration `yaml:"session_ttl"`
}

// CacheConfig sizes the session read cache. Zero disables it.
type CacheConfig struct {
	SessionEntries int `yaml:"session_entries"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RateLimitConfig bounds plan generation: a bucket of PlanBurst tokens
// refilled one per PlanRefill.
type RateLimitConfig struct {
	PlanBurst  int      `yaml:"plan_burst"`
	PlanRefill Duration `yaml:"plan_refill"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → .env → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("FITPLAN_CONFIG_PATH", "config/fitplan.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	loadDotEnv(getEnv("FITPLAN_ENV_FILE", ".env"))
	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	// Load YAML file (file must exist for this function)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(90 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			Path:   "data/fitplan.db",
		},
		Planner: PlannerConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o-mini",
			MaxAttempts: 3,
			RetryBase:   Duration(500 * time.Millisecond),
			Timeout:     Duration(25 * time.Second),
		},
		Worker: WorkerConfig{
			SessionPurgeInterval: Duration(1 * time.Hour),
			SessionTTL:           Duration(30 * 24 * time.Hour),
		},
		Cache: CacheConfig{
			SessionEntries: 1024,
		},
		RateLimit: RateLimitConfig{
			PlanBurst:  20,
			PlanRefill: Duration(3 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Missing file is OK; use defaults
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// loadDotEnv exports variables from a .env file into the process environment.
// Variables already set win. A missing or unreadable file is ignored.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	envInt("FITPLAN_PORT", &cfg.Server.Port)
	envDuration("FITPLAN_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("FITPLAN_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("FITPLAN_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	envString("FITPLAN_DB_DRIVER", &cfg.Database.Driver)
	envString("FITPLAN_DB_PATH", &cfg.Database.Path)
	envString("FITPLAN_DB_DSN", &cfg.Database.DSN)

	// Planner (provider API key names follow each vendor's convention)
	envString("FITPLAN_PLANNER_PROVIDER", &cfg.Planner.Provider)
	envString("FITPLAN_PLANNER_MODEL", &cfg.Planner.Model)
	envInt("FITPLAN_PLANNER_MAX_ATTEMPTS", &cfg.Planner.MaxAttempts)
	envDuration("FITPLAN_PLANNER_RETRY_BASE", &cfg.Planner.RetryBase)
	envDuration("FITPLAN_PLANNER_TIMEOUT", &cfg.Planner.Timeout)
	envString("OPENAI_API_KEY", &cfg.Planner.OpenAIAPIKey)
	envString("GEMINI_API_KEY", &cfg.Planner.GeminiAPIKey)

	// Auth
	envString("FITPLAN_API_KEY", &cfg.Auth.APIKey)

	// Worker
	envDuration("FITPLAN_SESSION_PURGE_INTERVAL", &cfg.Worker.SessionPurgeInterval)
	envDuration("FITPLAN_SESSION_TTL", &cfg.Worker.SessionTTL)

	// Cache
	envInt("FITPLAN_CACHE_SESSION_ENTRIES", &cfg.Cache.SessionEntries)

	// CORS (comma-separated)
	if v := os.Getenv("FITPLAN_CORS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.CORS.AllowedOrigins = origins
	}

	// Rate limit
	envInt("FITPLAN_PLAN_BURST", &cfg.RateLimit.PlanBurst)
	envDuration("FITPLAN_PLAN_REFILL", &cfg.RateLimit.PlanRefill)

	// Log
	envString("FITPLAN_LOG_LEVEL", &cfg.Log.Level)
	envString("FITPLAN_LOG_FORMAT", &cfg.Log.Format)
}

// validate checks enums, duration bounds and that required values are set.
// In dev mode (FITPLAN_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if !slices.Contains([]string{DriverSQLite, DriverPostgres}, c.Database.Driver) {
		return fmt.Errorf("database.driver must be one of: %s, %s", DriverSQLite, DriverPostgres)
	}
	if !slices.Contains([]string{ProviderOpenAI, ProviderGemini}, c.Planner.Provider) {
		return fmt.Errorf("planner.provider must be one of: %s, %s", ProviderOpenAI, ProviderGemini)
	}
	if c.Planner.MaxAttempts < 1 {
		return errors.New("planner.max_attempts must be at least 1")
	}
	if c.Planner.RetryBase <= 0 {
		return errors.New("planner.retry_base must be positive")
	}
	if c.Planner.Timeout <= 0 {
		return errors.New("planner.timeout must be positive")
	}
	if budget := c.Planner.Budget(); budget >= time.Duration(c.Server.WriteTimeout) {
		return fmt.Errorf("planner.timeout * max_attempts plus retry backoff (%s) must be less than server.write_timeout (%s)",
			budget, time.Duration(c.Server.WriteTimeout))
	}
	if c.Worker.SessionPurgeInterval <= 0 {
		return errors.New("worker.session_purge_interval must be positive")
	}
	if c.Worker.SessionTTL <= 0 {
		return errors.New("worker.session_ttl must be positive")
	}
	if c.RateLimit.PlanRefill <= 0 {
		return errors.New("rate_limit.plan_refill must be positive")
	}
	if c.Database.Driver == DriverPostgres && c.Database.DSN == "" {
		return errors.New("FITPLAN_DB_DSN is required for the postgres driver")
	}

	// Dev mode bypasses API key validation
	if os.Getenv("FITPLAN_DEV_MODE") == "true" {
		return nil
	}

	if c.Planner.APIKey() == "" {
		if c.Planner.Provider == ProviderGemini {
			return errors.New("GEMINI_API_KEY is required")
		}
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.Auth.APIKey == "" {
		return errors.New("FITPLAN_API_KEY is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
