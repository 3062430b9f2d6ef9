package track

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the optional on-disk request log, enabled only via
// STRAPI_MCP_REQUEST_LOG_DB. It is append-only from the dispatch path; the
// core never queries it.
type Store struct {
	db *sql.DB
}

func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create request log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open request log db: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS request_log (
	id TEXT PRIMARY KEY,
	started_at_utc TEXT NOT NULL,
	ended_at_utc TEXT NOT NULL,
	tool TEXT NOT NULL,
	server TEXT,
	outcome TEXT NOT NULL,
	duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_request_log_started ON request_log(started_at_utc, id);
CREATE INDEX IF NOT EXISTS idx_request_log_tool ON request_log(tool, started_at_utc);
`)
	if err != nil {
		return fmt.Errorf("init request log schema: %w", err)
	}
	return nil
}

func (s *Store) Insert(lc Lifecycle) error {
	_, err := s.db.Exec(`
INSERT INTO request_log (id, started_at_utc, ended_at_utc, tool, server, outcome, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		lc.ID,
		lc.StartedAt.UTC().Format(time.RFC3339Nano),
		lc.EndedAt.UTC().Format(time.RFC3339Nano),
		lc.Tool,
		lc.Server,
		lc.Outcome,
		lc.EndedAt.Sub(lc.StartedAt).Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert request log: %w", err)
	}
	return nil
}
