package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id       SERIAL PRIMARY KEY,
	login    TEXT NOT NULL UNIQUE,
	email    TEXT NOT NULL,
	password TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS calculations (
	id             SERIAL PRIMARY KEY,
	user_id        INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at     TIMESTAMPTZ NOT NULL,
	voltage_system TEXT NOT NULL,
	kva_per_house  DOUBLE PRECISION NOT NULL,
	houses         INTEGER NOT NULL,
	diversity      DOUBLE PRECISION NOT NULL,
	total_kva      DOUBLE PRECISION NOT NULL,
	current_a      DOUBLE PRECISION NOT NULL,
	cable_size     DOUBLE PRECISION NOT NULL,
	material       TEXT NOT NULL,
	cores          TEXT NOT NULL,
	length_m       DOUBLE PRECISION NOT NULL,
	drop_v         DOUBLE PRECISION NOT NULL,
	drop_percent   DOUBLE PRECISION NOT NULL,
	admd           BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS calculations_user_created ON calculations (user_id, created_at DESC);
`

// Open connects to Postgres, checks the connection and creates missing tables.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
