package storage

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// Config holds database connection settings for both ClickHouse and PostgreSQL.
type Config struct {
	ClickHouse ClickHouseConfig
	Postgres   PostgresConfig
}

// DefaultConfig returns local development settings, each overridable
// through UAV_CH_* and UAV_PG_* environment variables.
func DefaultConfig() Config {
	return Config{
		ClickHouse: ClickHouseConfig{
			Host:     envOr("UAV_CH_HOST", "localhost"),
			Port:     envOrInt("UAV_CH_PORT", 9000),
			Database: envOr("UAV_CH_DB", "uav_telegrams"),
			User:     envOr("UAV_CH_USER", "default"),
			Password: envOr("UAV_CH_PASSWORD", ""),
		},
		Postgres: PostgresConfig{
			Host:     envOr("UAV_PG_HOST", "localhost"),
			Port:     envOrInt("UAV_PG_PORT", 5432),
			Database: envOr("UAV_PG_DB", "uav_state"),
			User:     envOr("UAV_PG_USER", "uav"),
			Password: envOr("UAV_PG_PASSWORD", "uav"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// DB wraps both ClickHouse and PostgreSQL connections.
type DB struct {
	CH *ClickHouseDB // ClickHouse for the telegram archive and analytics.
	PG *PostgresDB   // PostgreSQL for flight records and batch status.
}

// Open opens connections to both ClickHouse and PostgreSQL.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	ch, err := OpenClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("clickhouse: %w", err)
	}

	pg, err := OpenPostgres(ctx, cfg.Postgres)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &DB{CH: ch, PG: pg}, nil
}

// Close closes both database connections.
func (d *DB) Close() error {
	var errs []error
	if d.CH != nil {
		if err := d.CH.Close(); err != nil {
			errs = append(errs, fmt.Errorf("clickhouse: %w", err))
		}
	}
	if d.PG != nil {
		d.PG.Close()
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// CreateSchemas creates the schemas in both databases.
func (d *DB) CreateSchemas(ctx context.Context) error {
	if err := d.CH.CreateSchema(ctx); err != nil {
		return fmt.Errorf("clickhouse schema: %w", err)
	}
	if err := d.PG.CreateSchema(ctx); err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}
