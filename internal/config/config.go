// Package config provides client configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultAPIURL is the production API base, including the /api prefix.
const DefaultAPIURL = "https://social-media-be-400174736012.asia-southeast2.run.app/api"

// Config holds client configuration values loaded from file or environment variables.
type Config struct {
	APIURL             string  `mapstructure:"API_URL" yaml:"api_url"`
	APITimeoutSeconds  int     `mapstructure:"API_TIMEOUT_SECONDS" yaml:"api_timeout_seconds"`
	Env                string  `mapstructure:"APP_ENV" yaml:"app_env"`
	LogLevel           string  `mapstructure:"LOG_LEVEL" yaml:"log_level"`
	SessionDBPath      string  `mapstructure:"SESSION_DB_PATH" yaml:"session_db_path"`
	RedisURL           string  `mapstructure:"REDIS_URL" yaml:"redis_url"`
	CacheTTLSeconds    int     `mapstructure:"CACHE_TTL_SECONDS" yaml:"cache_ttl_seconds"`
	FeedPageSize       int     `mapstructure:"FEED_PAGE_SIZE" yaml:"feed_page_size"`
	ExplorePageSize    int     `mapstructure:"EXPLORE_PAGE_SIZE" yaml:"explore_page_size"`
	ProfilePageSize    int     `mapstructure:"PROFILE_PAGE_SIZE" yaml:"profile_page_size"`
	CommentsPageSize   int     `mapstructure:"COMMENTS_PAGE_SIZE" yaml:"comments_page_size"`
	SearchDebounceMS   int     `mapstructure:"SEARCH_DEBOUNCE_MS" yaml:"search_debounce_ms"`
	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED" yaml:"tracing_enabled"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER" yaml:"tracing_exporter"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO" yaml:"tracing_sample_ratio"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT" yaml:"otlp_endpoint"`
	SandboxPort        string  `mapstructure:"SANDBOX_PORT" yaml:"sandbox_port"`
	SandboxJWTSecret   string  `mapstructure:"SANDBOX_JWT_SECRET" yaml:"-"`
	SandboxSeedUsers   int     `mapstructure:"SANDBOX_SEED_USERS" yaml:"sandbox_seed_users"`
}

// LoadConfig loads configuration from config.yml (optional), an APP_ENV profile and the environment.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env != "" && env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config.%s.yml: %w", env, err)
			}
		} else {
			log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
		}
	}

	SetDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.APIURL = strings.TrimRight(strings.TrimSpace(config.APIURL), "/")
	config.LogLevel = strings.ToLower(strings.TrimSpace(config.LogLevel))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("API_URL", DefaultAPIURL)
	viper.SetDefault("API_TIMEOUT_SECONDS", 30)
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SESSION_DB_PATH", "snapfeed.db")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("CACHE_TTL_SECONDS", 300)
	viper.SetDefault("FEED_PAGE_SIZE", 10)
	viper.SetDefault("EXPLORE_PAGE_SIZE", 10)
	viper.SetDefault("PROFILE_PAGE_SIZE", 12)
	viper.SetDefault("COMMENTS_PAGE_SIZE", 20)
	viper.SetDefault("SEARCH_DEBOUNCE_MS", 300)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("SANDBOX_PORT", "8375")
	viper.SetDefault("SANDBOX_JWT_SECRET", "sandbox-secret-change-me")
	viper.SetDefault("SANDBOX_SEED_USERS", 8)
}

// Validate ensures that required values are present and sane.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("API_URL is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_URL %q must be an absolute URL", c.APIURL)
	}
	if c.APITimeoutSeconds <= 0 {
		return errors.New("API_TIMEOUT_SECONDS must be positive")
	}
	for name, v := range map[string]int{
		"FEED_PAGE_SIZE":     c.FeedPageSize,
		"EXPLORE_PAGE_SIZE":  c.ExplorePageSize,
		"PROFILE_PAGE_SIZE":  c.ProfilePageSize,
		"COMMENTS_PAGE_SIZE": c.CommentsPageSize,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.SearchDebounceMS < 0 {
		return errors.New("SEARCH_DEBOUNCE_MS cannot be negative")
	}
	switch c.TracingExporter {
	case "stdout", "otlp":
	default:
		return fmt.Errorf("TRACING_EXPORTER must be stdout or otlp, got %q", c.TracingExporter)
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return errors.New("TRACING_SAMPLE_RATIO must be between 0 and 1")
	}

	isProduction := c.Env == "production" || c.Env == "prod"
	if isProduction && u.Scheme != "https" {
		return errors.New("API_URL must use https in production")
	}
	if !isProduction && u.Scheme != "https" {
		log.Println("WARNING: API_URL is not https; bearer tokens will travel in clear text.")
	}

	return nil
}

// APITimeout returns the request timeout as a duration.
func (c *Config) APITimeout() time.Duration {
	return time.Duration(c.APITimeoutSeconds) * time.Second
}

// CacheTTL returns the cache entry lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// SearchDebounce returns the search debounce delay.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}
