package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	// DefaultJWTSecret is only fit for local development.
	DefaultJWTSecret = "dev-secret-change-me"
)

type Config struct {
	ServerPort  string `yaml:"server_port"`
	DatabaseURL string `yaml:"database_url"`
	DBHost      string `yaml:"db_host"`
	DBPort      string `yaml:"db_port"`
	DBUser      string `yaml:"db_user"`
	DBPassword  string `yaml:"db_password"`
	DBName      string `yaml:"db_name"`
	StoreDriver string `yaml:"store_driver"`
	RedisURL    string `yaml:"redis_url"`

	// TrustedProxies lists addresses or CIDR prefixes whose forwarding
	// headers are believed when keying rate limits. Empty means none.
	TrustedProxies []string `yaml:"trusted_proxies"`

	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Throttle  ThrottleConfig  `yaml:"throttle"`

	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RateLimitConfig caps each client at Max requests per Window.
type RateLimitConfig struct {
	Max    int           `yaml:"max"`
	Window time.Duration `yaml:"window"`
}

// ThrottleConfig slows clients down before they hit the hard limit.
// DelayAfter == 0 disables throttling.
type ThrottleConfig struct {
	DelayAfter int           `yaml:"delay_after"`
	DelayStep  time.Duration `yaml:"delay_step"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

func Default() *Config {
	return &Config{
		ServerPort:  "8080",
		DBHost:      "localhost",
		DBPort:      "5432",
		DBUser:      "notes",
		DBPassword:  "notes_dev_password",
		DBName:      "notes",
		StoreDriver: StoreDriverPostgres,
		JWTSecret:   DefaultJWTSecret,
		TokenTTL:    24 * time.Hour,
		RateLimit: RateLimitConfig{
			Max:    10,
			Window: time.Minute,
		},
		Throttle: ThrottleConfig{
			DelayStep: 500 * time.Millisecond,
			MaxDelay:  5 * time.Second,
		},
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	envString(&c.ServerPort, "SERVER_PORT")
	envString(&c.DatabaseURL, "DATABASE_URL")
	envString(&c.DBHost, "DB_HOST")
	envString(&c.DBPort, "DB_PORT")
	envString(&c.DBUser, "DB_USER")
	envString(&c.DBPassword, "DB_PASSWORD")
	envString(&c.DBName, "DB_NAME")
	envString(&c.StoreDriver, "STORE_DRIVER")
	envString(&c.RedisURL, "REDIS_URL")
	envString(&c.JWTSecret, "JWT_SECRET")
	envString(&c.LogLevel, "LOG_LEVEL")
	envString(&c.LogFormat, "LOG_FORMAT")
	envList(&c.TrustedProxies, "TRUSTED_PROXIES")

	return errors.Join(
		envDuration(&c.TokenTTL, "TOKEN_TTL"),
		envInt(&c.RateLimit.Max, "RATE_LIMIT_MAX"),
		envDuration(&c.RateLimit.Window, "RATE_LIMIT_WINDOW"),
		envInt(&c.Throttle.DelayAfter, "THROTTLE_DELAY_AFTER"),
		envDuration(&c.Throttle.DelayStep, "THROTTLE_DELAY_STEP"),
		envDuration(&c.Throttle.MaxDelay, "THROTTLE_MAX_DELAY"),
		envDuration(&c.ShutdownTimeout, "SHUTDOWN_TIMEOUT"),
	)
}

func (c *Config) Validate() error {
	var errs []error
	if c.StoreDriver != StoreDriverPostgres && c.StoreDriver != StoreDriverMemory {
		errs = append(errs, fmt.Errorf("store_driver must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if c.RateLimit.Max <= 0 {
		errs = append(errs, errors.New("rate_limit.max must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.window must be positive"))
	}
	if c.Throttle.DelayAfter < 0 {
		errs = append(errs, errors.New("throttle.delay_after cannot be negative"))
	}
	return errors.Join(errs...)
}

// InsecureSecret reports whether the development JWT secret is in use with a
// persistent store.
func (c *Config) InsecureSecret() bool {
	return c.JWTSecret == DefaultJWTSecret && c.StoreDriver != StoreDriverMemory
}

// DSN returns DatabaseURL when set, otherwise a URL built from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

func envString(dst *string, key string) {
	if val, exists := os.LookupEnv(key); exists {
		*dst = val
	}
}

// envList reads a comma-separated list. An empty value clears dst.
func envList(dst *[]string, key string) {
	val, exists := os.LookupEnv(key)
	if !exists {
		return
	}
	var items []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	*dst = items
}

func envInt(dst *int, key string) error {
	val, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(dst *time.Duration, key string) error {
	val, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
