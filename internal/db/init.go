// Package db opens the PostgreSQL store, creates its schema and seeds the
// default admin account and calculator catalog.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash BYTEA NOT NULL,
    role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS calculators (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL CHECK (type IN ('mortgage', 'carLoan', 'consumerLoan', 'pension')),
    description TEXT NOT NULL,
    interest_rate DOUBLE PRECISION NOT NULL,
    min_amount DOUBLE PRECISION NOT NULL,
    max_amount DOUBLE PRECISION NOT NULL,
    min_term INTEGER NOT NULL,
    max_term INTEGER NOT NULL,
    min_down_payment DOUBLE PRECISION NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS calculators_type_active_idx ON calculators (type, is_active);
`

// InitPostgres connects to dsn and creates any missing tables.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := createSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
