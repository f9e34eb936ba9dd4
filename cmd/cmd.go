package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/frahmantamala/employee-directory/internal"
	"github.com/frahmantamala/employee-directory/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	clearData bool
)

var rootCmd = &cobra.Command{
	Use:   "employee-directory",
	Short: "Employee Directory",
	Long:  `Manage employee records over a REST API with search, pagination and PDF/XLSX export.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*internal.Config, error) {
	// Check if we're running in Docker environment
	if os.Getenv("APP_ENV") == "production" || os.Getenv("DOCKER_ENV") == "true" {
		// Load configuration from environment variables (Docker deployment)
		cfg := internal.LoadConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("error validating config from environment: %w", err)
		}
		return cfg, nil
	}

	// Load configuration from file (development)
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix("ENV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, internal.DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg internal.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("error validating config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers every key so ENV_* overrides apply even when the
// config file omits the key or is missing.
func setDefaults(v *viper.Viper, d *internal.Config) {
	defaults := map[string]any{
		"http_server.port":                d.Server.Port,
		"http_server.base_url":            d.Server.BaseURL,
		"http_server.base_path":           d.Server.BasePath,
		"http_server.read_header_timeout": d.Server.ReadHeaderTimeout,
		"http_server.read_timeout":        d.Server.ReadTimeout,
		"http_server.write_timeout":       d.Server.WriteTimeout,
		"http_server.idle_timeout":        d.Server.IdleTimeout,

		"database.source":             d.Database.Source,
		"database.max_open_conns":     d.Database.MaxOpenConns,
		"database.max_idle_conns":     d.Database.MaxIdleConns,
		"database.conn_max_lifetime":  d.Database.ConnMaxLifetime,
		"database.conn_max_idle_time": d.Database.ConnMaxIdleTime,
		"database.query_timeout":      d.Database.QueryTimeout,

		"pagination.page_size":        d.Pagination.PageSize,
		"pagination.max_page_size":    d.Pagination.MaxPageSize,
		"pagination.default_ordering": d.Pagination.DefaultOrdering,

		"media.base_url": d.Media.BaseURL,

		"export.title":            d.Export.Title,
		"export.timezone":         d.Export.Timezone,
		"export.currency_symbol":  d.Export.CurrencySymbol,
		"export.currency_code":    d.Export.CurrencyCode,
		"export.max_column_width": d.Export.MaxColumnWidth,

		"observability.metrics.enabled": d.Observability.Metrics.Enabled,
		"observability.metrics.path":    d.Observability.Metrics.Path,
		"observability.logging.level":   d.Observability.Logging.Level,
		"observability.logging.format":  d.Observability.Logging.Format,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func initLogger(cfg *internal.Config) {
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
}

func init() {
	seedCmd.Flags().BoolVar(&clearData, "clear", false, "Clear existing employees before seeding")

	rootCmd.AddCommand(httpServerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
