// Package sqlite implements the decision log over a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agora-quant/agora/internal/storage"
)

// Store is a SQLite-backed decision log.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath and ensures the schema.
func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("db path is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    symbol TEXT NOT NULL,
    trade_date TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS decisions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    symbol TEXT NOT NULL,
    trade_date TEXT NOT NULL,
    action TEXT NOT NULL,
    confidence REAL NOT NULL,
    plan TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_symbol_date ON decisions(symbol, trade_date);
`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// Append stores one decision, creating the owning session row if needed.
func (s *Store) Append(ctx context.Context, record storage.DecisionRecord) error {
	if strings.TrimSpace(record.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(record.Action) == "" {
		return fmt.Errorf("decision action is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO sessions (id, symbol, trade_date)
VALUES (?, ?, ?)
ON CONFLICT(id) DO NOTHING
`, record.SessionID, record.Symbol, record.TradeDate)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO decisions (session_id, symbol, trade_date, action, confidence, plan, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, record.SessionID, record.Symbol, record.TradeDate, record.Action,
		record.Confidence, record.Plan, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit decision: %w", err)
	}
	return nil
}

// BySymbol returns decisions for a symbol, newest first.
func (s *Store) BySymbol(ctx context.Context, symbol string, limit int) ([]storage.DecisionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, symbol, trade_date, action, confidence, plan, created_at
FROM decisions
WHERE symbol = ?
ORDER BY created_at DESC
LIMIT ?
`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var result []storage.DecisionRecord
	for rows.Next() {
		var r storage.DecisionRecord
		if err := rows.Scan(&r.SessionID, &r.Symbol, &r.TradeDate, &r.Action,
			&r.Confidence, &r.Plan, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
