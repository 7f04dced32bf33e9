package database

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/DefinetlyNotAI/WESMUN-NFC/pkg/config"
)

// NewPostgres opens and pings a PostgreSQL handle using the configured driver.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	driver := cfg.Driver
	if driver == "" {
		driver = config.DriverPQ
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// DSN builds the connection string. An explicit DATABASE_URL, either a
// postgres:// URL or a libpq keyword/value string, is used as-is apart from
// adding the CA bundle when one is configured and the value does not set it.
func DSN(cfg config.DatabaseConfig) (string, error) {
	if cfg.URL != "" {
		if cfg.SSLRootCert == "" {
			return cfg.URL, nil
		}
		if !isURL(cfg.URL) {
			if strings.Contains(cfg.URL, "sslrootcert=") {
				return cfg.URL, nil
			}
			return cfg.URL + " " + kv("sslrootcert", cfg.SSLRootCert), nil
		}
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return "", fmt.Errorf("parse database url: %w", err)
		}
		q := u.Query()
		if q.Get("sslrootcert") == "" {
			q.Set("sslrootcert", cfg.SSLRootCert)
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	parts := []string{
		kv("host", cfg.Host),
		fmt.Sprintf("port=%d", cfg.Port),
		kv("user", cfg.User),
		kv("password", cfg.Password),
		kv("dbname", cfg.Name),
	}
	if cfg.SSLMode != "" {
		parts = append(parts, kv("sslmode", cfg.SSLMode))
	}
	if cfg.SSLRootCert != "" {
		parts = append(parts, kv("sslrootcert", cfg.SSLRootCert))
	}
	if cfg.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", connectTimeoutSeconds(cfg.ConnectTimeout)))
	}
	return strings.Join(parts, " "), nil
}

func isURL(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// connectTimeoutSeconds rounds up; libpq reads 0 as no timeout.
func connectTimeoutSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// kv quotes values in the libpq keyword/value format.
func kv(key, value string) string {
	if value == "" {
		return key + "=''"
	}
	if !strings.ContainsAny(value, ` '\`) {
		return key + "=" + value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(value)
	return key + "='" + escaped + "'"
}
