package sqliterepo

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) a single-file archive and ensures its schema.
func Open(path string) (*sql.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		parent := filepath.Dir(path)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS negotiations (
    id TEXT PRIMARY KEY,
    idempotency_key TEXT UNIQUE,
    source TEXT NOT NULL,
    product TEXT NOT NULL,
    market_price REAL NOT NULL,
    buyer_name TEXT NOT NULL,
    buyer_personality TEXT NOT NULL,
    buyer_anchor REAL NOT NULL,
    seller_name TEXT NOT NULL,
    seller_personality TEXT NOT NULL,
    seller_anchor REAL NOT NULL,
    max_rounds INTEGER NOT NULL,
    seller_termination TEXT NOT NULL,
    status TEXT NOT NULL,
    final_state TEXT NOT NULL,
    final_price REAL,
    rounds INTEGER NOT NULL,
    warnings TEXT NOT NULL DEFAULT '[]',
    created_at_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_negotiations_created ON negotiations (created_at_ms DESC, id DESC);
CREATE TABLE IF NOT EXISTS negotiation_turns (
    negotiation_id TEXT NOT NULL REFERENCES negotiations(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    round INTEGER NOT NULL,
    speaker TEXT NOT NULL,
    role TEXT NOT NULL,
    personality TEXT NOT NULL,
    message TEXT NOT NULL,
    action TEXT NOT NULL,
    offer REAL,
    PRIMARY KEY (negotiation_id, seq)
);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return nil
}
