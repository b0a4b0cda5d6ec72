package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/noah-isme/study-planner/pkg/config"
)

const transitionsSchema = `
CREATE TABLE IF NOT EXISTS deadline_transitions (
	id UUID PRIMARY KEY,
	assessment_id BIGINT NOT NULL,
	title TEXT NOT NULL,
	subject_name TEXT NOT NULL,
	from_tier TEXT NOT NULL,
	to_tier TEXT NOT NULL,
	deadline TIMESTAMPTZ,
	observed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_deadline_transitions_observed_at ON deadline_transitions (observed_at DESC);
CREATE INDEX IF NOT EXISTS idx_deadline_transitions_assessment ON deadline_transitions (assessment_id);
`

// NewPostgres returns a configured PostgreSQL client for the transition log.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the tables owned by this program when they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, transitionsSchema); err != nil {
		return fmt.Errorf("migrate deadline_transitions: %w", err)
	}
	return nil
}
