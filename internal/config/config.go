// Package config loads service configuration from an optional YAML file,
// a .env file and environment variables, in increasing precedence.
//
// Missing partner secrets never fail loading: the credential provider reports
// them when a batch first needs them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/freight-batch/pkg/batch"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service.
type Config struct {
	Server     ServerConfig          `yaml:"server"`
	TMS        TMSConfig             `yaml:"tms"`
	LaneRate   LaneRateConfig        `yaml:"lane_rate"`
	Redis      RedisConfig           `yaml:"redis"`
	Export     ExportConfig          `yaml:"export"`
	Operations map[string]WaveConfig `yaml:"operations"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	LogLevel       string   `yaml:"log_level"`
	LogPretty      bool     `yaml:"log_pretty"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Per-client batch submissions per second and burst.
	SubmitRPS   float64 `yaml:"submit_rps"`
	SubmitBurst int     `yaml:"submit_burst"`
}

// TMSConfig holds the transportation management system credentials.
type TMSConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	Scope          string `yaml:"scope"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LaneRateConfig holds the lane-rate service settings.
type LaneRateConfig struct {
	IdentityURL            string `yaml:"identity_url"`
	AnalyticsURL           string `yaml:"analytics_url"`
	ServiceAccountEmail    string `yaml:"service_account_email"`
	ServiceAccountPassword string `yaml:"service_account_password"`
	Username               string `yaml:"username"`
	TimeoutSeconds         int    `yaml:"timeout_seconds"`
}

// RedisConfig holds report retention settings.
type RedisConfig struct {
	URL            string `yaml:"url"`
	ReportTTLHours int    `yaml:"report_ttl_hours"`
}

// ExportConfig holds the optional S3 archive settings. An empty bucket
// disables archiving.
type ExportConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	S3Region string `yaml:"s3_region"`
}

// WaveConfig overrides the wave shape of one operation.
type WaveConfig struct {
	MaxConcurrent     int `yaml:"max_concurrent"`
	InterBatchDelayMS int `yaml:"inter_batch_delay_ms"`
}

// Timeout returns the per-request timeout.
func (c TMSConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout returns the per-request timeout.
func (c LaneRateConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ReportTTL returns how long finished reports are retained.
func (c RedisConfig) ReportTTL() time.Duration {
	return time.Duration(c.ReportTTLHours) * time.Hour
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Waves returns the wave settings of an operation: the defaults of 39
// concurrent calls and a one second delay, with any configured override.
func (c *Config) Waves(operation string) batch.Config {
	cfg := batch.DefaultConfig()
	if w, ok := c.Operations[operation]; ok {
		if w.MaxConcurrent > 0 {
			cfg.MaxConcurrent = w.MaxConcurrent
		}
		if w.InterBatchDelayMS > 0 {
			cfg.InterBatchDelay = time.Duration(w.InterBatchDelayMS) * time.Millisecond
		}
	}
	return cfg
}

// Load reads the YAML file at path and applies defaults. An empty path
// yields the defaults alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	setDefaults(&cfg)
	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.SubmitRPS == 0 {
		cfg.Server.SubmitRPS = 0.5
	}
	if cfg.Server.SubmitBurst == 0 {
		cfg.Server.SubmitBurst = 3
	}
	if cfg.TMS.BaseURL == "" {
		cfg.TMS.BaseURL = "https://publicapi.turvo.com/v1"
	}
	if cfg.TMS.ClientID == "" {
		cfg.TMS.ClientID = "publicapi"
	}
	if cfg.TMS.ClientSecret == "" {
		cfg.TMS.ClientSecret = "secret"
	}
	if cfg.TMS.Scope == "" {
		cfg.TMS.Scope = "read+trust+write"
	}
	if cfg.TMS.TimeoutSeconds == 0 {
		cfg.TMS.TimeoutSeconds = 30
	}
	if cfg.LaneRate.IdentityURL == "" {
		cfg.LaneRate.IdentityURL = "https://identity.api.dat.com/access/v1"
	}
	if cfg.LaneRate.AnalyticsURL == "" {
		cfg.LaneRate.AnalyticsURL = "https://analytics.api.dat.com"
	}
	if cfg.LaneRate.TimeoutSeconds == 0 {
		cfg.LaneRate.TimeoutSeconds = 30
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379/0"
	}
	if cfg.Redis.ReportTTLHours == 0 {
		cfg.Redis.ReportTTLHours = 24
	}
	if cfg.Export.S3Prefix == "" {
		cfg.Export.S3Prefix = "freight-batch/reports"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It loads a .env file (if present) before reading env vars, so secrets can
// live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	strVar(&cfg.TMS.BaseURL, "TMS_BASE_URL")
	strVar(&cfg.TMS.APIKey, "TMS_API_KEY")
	strVar(&cfg.TMS.ClientID, "TMS_CLIENT_ID")
	strVar(&cfg.TMS.ClientSecret, "TMS_CLIENT_SECRET")
	strVar(&cfg.TMS.Username, "TMS_USERNAME")
	strVar(&cfg.TMS.Password, "TMS_PASSWORD")

	strVar(&cfg.LaneRate.IdentityURL, "DAT_IDENTITY_URL")
	strVar(&cfg.LaneRate.AnalyticsURL, "DAT_ANALYTICS_URL")
	strVar(&cfg.LaneRate.ServiceAccountEmail, "DAT_SERVICE_ACCOUNT_EMAIL")
	strVar(&cfg.LaneRate.ServiceAccountPassword, "DAT_SERVICE_ACCOUNT_PASSWORD")
	strVar(&cfg.LaneRate.Username, "DAT_USERNAME")

	strVar(&cfg.Redis.URL, "REDIS_URL")
	strVar(&cfg.Export.S3Bucket, "EXPORT_S3_BUCKET")
	strVar(&cfg.Export.S3Prefix, "EXPORT_S3_PREFIX")
	strVar(&cfg.Export.S3Region, "EXPORT_S3_REGION")
	strVar(&cfg.Server.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_PRETTY %q: %w", v, err)
		}
		cfg.Server.LogPretty = pretty
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = splitList(v)
	}

	return cfg, nil
}

func strVar(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
