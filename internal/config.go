package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Pagination    PaginationConfig    `mapstructure:"pagination"`
	Media         MediaConfig         `mapstructure:"media"`
	Export        ExportConfig        `mapstructure:"export"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	BasePath          string        `mapstructure:"base_path"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
	Source          string        `mapstructure:"source"`
}

type PaginationConfig struct {
	PageSize        int    `mapstructure:"page_size" validate:"required,min=1"`
	MaxPageSize     int    `mapstructure:"max_page_size" validate:"required,min=1"`
	DefaultOrdering string `mapstructure:"default_ordering"`
}

type MediaConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type ExportConfig struct {
	Title          string `mapstructure:"title"`
	Timezone       string `mapstructure:"timezone"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
	CurrencyCode   string `mapstructure:"currency_code"`
	MaxColumnWidth int    `mapstructure:"max_column_width"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// DefaultConfig returns a configuration populated with every default value.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              8080,
			BasePath:          "/api",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnMaxIdleTime: 5 * time.Minute,
			QueryTimeout:    10 * time.Second,
		},
		Pagination: PaginationConfig{
			PageSize:        10,
			MaxPageSize:     100,
			DefaultOrdering: "last_name,first_name",
		},
		Media: MediaConfig{
			BaseURL: "/media/",
		},
		Export: ExportConfig{
			Title:          "Employee Directory",
			Timezone:       "UTC",
			CurrencySymbol: "₹",
			CurrencyCode:   "INR",
			MaxColumnWidth: 50,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
			Logging: LoggingConfig{Level: "info", Format: "text"},
		},
	}
}

// ----------------- ENV LOADING -----------------

// LoadConfigFromEnv builds the configuration from plain environment variables,
// used by container deployments where no config file is mounted.
func LoadConfigFromEnv() *Config {
	cfg := DefaultConfig()

	cfg.Server.Port = getEnvAsInt("HTTP_PORT", cfg.Server.Port)
	cfg.Server.BaseURL = getEnv("HTTP_BASE_URL", cfg.Server.BaseURL)
	cfg.Server.BasePath = getEnv("HTTP_BASE_PATH", cfg.Server.BasePath)
	cfg.Server.ReadHeaderTimeout = getEnvAsDuration("HTTP_READ_HEADER_TIMEOUT", cfg.Server.ReadHeaderTimeout)
	cfg.Server.ReadTimeout = getEnvAsDuration("HTTP_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getEnvAsDuration("HTTP_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = getEnvAsDuration("HTTP_IDLE_TIMEOUT", cfg.Server.IdleTimeout)

	cfg.Database.Source = getEnv("DATABASE_URL", cfg.Database.Source)
	cfg.Database.MaxOpenConns = getEnvAsInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvAsInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.Database.ConnMaxLifetime = getEnvAsDuration("DATABASE_CONN_MAX_LIFETIME", cfg.Database.ConnMaxLifetime)
	cfg.Database.ConnMaxIdleTime = getEnvAsDuration("DATABASE_CONN_MAX_IDLE_TIME", cfg.Database.ConnMaxIdleTime)
	cfg.Database.QueryTimeout = getEnvAsDuration("DATABASE_QUERY_TIMEOUT", cfg.Database.QueryTimeout)

	cfg.Pagination.PageSize = getEnvAsInt("PAGINATION_PAGE_SIZE", cfg.Pagination.PageSize)
	cfg.Pagination.MaxPageSize = getEnvAsInt("PAGINATION_MAX_PAGE_SIZE", cfg.Pagination.MaxPageSize)
	cfg.Pagination.DefaultOrdering = getEnv("PAGINATION_DEFAULT_ORDERING", cfg.Pagination.DefaultOrdering)

	cfg.Media.BaseURL = getEnv("MEDIA_BASE_URL", cfg.Media.BaseURL)

	cfg.Export.Title = getEnv("EXPORT_TITLE", cfg.Export.Title)
	cfg.Export.Timezone = getEnv("EXPORT_TIMEZONE", cfg.Export.Timezone)
	cfg.Export.CurrencySymbol = getEnv("EXPORT_CURRENCY_SYMBOL", cfg.Export.CurrencySymbol)
	cfg.Export.CurrencyCode = getEnv("EXPORT_CURRENCY_CODE", cfg.Export.CurrencyCode)
	cfg.Export.MaxColumnWidth = getEnvAsInt("EXPORT_MAX_COLUMN_WIDTH", cfg.Export.MaxColumnWidth)

	cfg.Observability.Metrics.Enabled = getEnvAsBool("METRICS_ENABLED", cfg.Observability.Metrics.Enabled)
	cfg.Observability.Metrics.Path = getEnv("METRICS_PATH", cfg.Observability.Metrics.Path)
	cfg.Observability.Logging.Level = getEnv("LOG_LEVEL", cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = getEnv("LOG_FORMAT", cfg.Observability.Logging.Format)

	return cfg
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Pagination.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("pagination config: %v", err))
	}

	if err := c.Export.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("export config: %v", err))
	}

	if err := c.Observability.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("observability config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
			return fmt.Errorf("invalid base_url %s: %w", c.BaseURL, err)
		}
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return errors.New("base_path must start with /")
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *PaginationConfig) Validate() error {
	if c.PageSize < 1 {
		return errors.New("page_size must be at least 1")
	}
	if c.MaxPageSize < c.PageSize {
		return errors.New("max_page_size cannot be smaller than page_size")
	}
	return nil
}

func (c *ExportConfig) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.MaxColumnWidth < 1 {
		return errors.New("max_column_width must be at least 1")
	}
	return nil
}

// Location resolves the export time zone, defaulting to UTC.
func (c *ExportConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c *ObservabilityConfig) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("metrics path must start with / when metrics are enabled")
	}
	return nil
}
