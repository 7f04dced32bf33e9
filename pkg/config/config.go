package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported database/sql driver names.
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

const defaultCACertPath = "certs/ca.pem"

type Config struct {
	Env string `validate:"required,oneof=development production test"`

	Database   DatabaseConfig
	Log        LogConfig
	Migrations MigrationsConfig
	Inventory  InventoryConfig
	Reports    ReportsConfig
	Metrics    MetricsConfig
}

// DatabaseConfig describes how to reach the target database. URL wins over
// the discrete connection fields when both are set.
type DatabaseConfig struct {
	URL            string
	Driver         string `validate:"required,oneof=postgres pgx"`
	Host           string `validate:"required_without=URL"`
	Port           int    `validate:"omitempty,min=1,max=65535"`
	User           string `validate:"required_without=URL"`
	Password       string
	Name           string `validate:"required_without=URL"`
	SSLMode        string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	SSLRootCert    string
	ConnectTimeout time.Duration `validate:"min=0"`
	MaxOpenConns   int           `validate:"min=0"`
}

type LogConfig struct {
	Level  string
	Format string `validate:"omitempty,oneof=json console"`
}

// MigrationsConfig tunes the migration runner.
type MigrationsConfig struct {
	Table string `validate:"required"`
}

// InventoryConfig controls which tables the inventory reporter walks.
type InventoryConfig struct {
	Schema          string `validate:"required"`
	IncludeTracking bool
}

// ReportsConfig configures where exported inventory reports are written.
type ReportsConfig struct {
	StorageDir string
}

// MetricsConfig enables pushing batch metrics to a Prometheus Pushgateway.
type MetricsConfig struct {
	PushgatewayURL string `validate:"omitempty,url"`
	Job            string `validate:"required"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Database = DatabaseConfig{
		URL:            strings.TrimSpace(v.GetString("DATABASE_URL")),
		Driver:         strings.ToLower(v.GetString("DB_DRIVER")),
		Host:           v.GetString("DB_HOST"),
		Port:           v.GetInt("DB_PORT"),
		User:           v.GetString("DB_USER"),
		Password:       v.GetString("DB_PASSWORD"),
		Name:           v.GetString("DB_NAME"),
		SSLMode:        v.GetString("DB_SSL_MODE"),
		SSLRootCert:    resolveRootCert(v.GetString("DB_SSL_ROOT_CERT")),
		ConnectTimeout: parseDuration(v.GetString("DB_CONNECT_TIMEOUT"), 10*time.Second),
		MaxOpenConns:   v.GetInt("DB_MAX_OPEN_CONNS"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Migrations = MigrationsConfig{
		Table: v.GetString("MIGRATIONS_TABLE"),
	}

	cfg.Inventory = InventoryConfig{
		Schema:          v.GetString("INVENTORY_SCHEMA"),
		IncludeTracking: v.GetBool("INVENTORY_INCLUDE_TRACKING"),
	}

	cfg.Reports = ReportsConfig{
		StorageDir: v.GetString("REPORTS_STORAGE_DIR"),
	}

	cfg.Metrics = MetricsConfig{
		PushgatewayURL: v.GetString("METRICS_PUSHGATEWAY_URL"),
		Job:            v.GetString("METRICS_JOB"),
	}

	return cfg
}

// Validate checks the loaded configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_DRIVER", DriverPQ)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "wesmun")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_SSL_ROOT_CERT", "")
	v.SetDefault("DB_CONNECT_TIMEOUT", "10s")
	v.SetDefault("DB_MAX_OPEN_CONNS", 1)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("MIGRATIONS_TABLE", "schema_migrations")

	v.SetDefault("INVENTORY_SCHEMA", "public")
	v.SetDefault("INVENTORY_INCLUDE_TRACKING", false)

	v.SetDefault("REPORTS_STORAGE_DIR", "./reports")

	v.SetDefault("METRICS_PUSHGATEWAY_URL", "")
	v.SetDefault("METRICS_JOB", "wesmun_schema")
}

// resolveRootCert falls back to the conventional CA bundle location when it exists.
func resolveRootCert(raw string) string {
	if raw != "" {
		return raw
	}
	if _, err := os.Stat(defaultCACertPath); err == nil {
		return defaultCACertPath
	}
	return ""
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}
