package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	SourceGoogleSheets = "gsheets"
	SourcePostgres     = "postgres"
	SourceMemory       = "memory"
)

type Config struct {
	Environment string `toml:"-"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// redis (login sessions, rate limiting)
	RedisHost                   string `toml:"redis_host"`
	RedisPort                   string `toml:"redis_port"`
	LoginRateLimitAllowedPerMin int    `toml:"login_rate_limit_allowed_per_min"`

	// browser origins allowed to call the api
	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`

	// workout log data source: gsheets | postgres | memory
	Source string `toml:"source"`

	// google sheets
	SpreadsheetKey  string `toml:"spreadsheet_key"`
	WorksheetName   string `toml:"worksheet_name"`
	CredentialsFile string `toml:"credentials_file"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// memory (dev only), optional CSV with the sheet header
	MemorySeedCsvPath string `toml:"memory_seed_csv_path"`

	// auth users config; fetched from object storage on startup when the bucket is set
	UsersConfigPath   string `toml:"users_config_path"`
	UsersConfigBucket string `toml:"users_config_bucket"`
	UsersConfigObject string `toml:"users_config_object"`

	// exercises drawn together on the main progress chart
	TrackedExercises []string `toml:"tracked_exercises"`
	ViewCacheSizeMB  int      `toml:"view_cache_size_mb"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		if t.Development == nil {
			return nil, errors.New("development config missing")
		}
		t.Development.Environment = "development"
		return t.Development, nil
	case "prod", "production":
		if t.Production == nil {
			return nil, errors.New("production config missing")
		}
		t.Production.Environment = "production"
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML config file, picks the section for env, applies defaults and validates it.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", cfg.Environment, err)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Source == "" {
		c.Source = SourceGoogleSheets
	}
	if c.WorksheetName == "" {
		c.WorksheetName = "db"
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = 15
	}
	if len(c.CorsAllowedOrigins) == 0 {
		c.CorsAllowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	if len(c.TrackedExercises) == 0 {
		c.TrackedExercises = []string{
			"Bench Press (Barbell)",
			"Squat (Barbell)",
			"Deadlift (Barbell)",
		}
	}
	if c.ViewCacheSizeMB == 0 {
		c.ViewCacheSizeMB = 16
	}
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.RedisHost == "" || c.RedisPort == "" {
		return errors.New("redis host and port must be set")
	}

	switch c.Source {
	case SourceGoogleSheets:
		if c.SpreadsheetKey == "" {
			return errors.New("spreadsheet_key must be set for the gsheets source")
		}
	case SourcePostgres:
		if c.PostgresHost == "" || c.PostgresPort == "" || c.PostgresDBName == "" {
			return errors.New("postgres host, port and db name must be set for the postgres source")
		}
	case SourceMemory:
		// nothing required
	default:
		return fmt.Errorf("unknown source: %s", c.Source)
	}

	if (c.UsersConfigBucket == "") != (c.UsersConfigObject == "") {
		return errors.New("users_config_bucket and users_config_object must be set together")
	}
	if c.UsersConfigBucket != "" && c.UsersConfigPath == "" {
		return errors.New("users_config_path must be set when fetching the users config")
	}

	return nil
}

// NeedsGoogleCredentials reports whether startup must resolve service account credentials.
func (c *Config) NeedsGoogleCredentials() bool {
	return c.Source == SourceGoogleSheets || c.UsersConfigBucket != ""
}
