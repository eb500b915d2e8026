package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store is the SQLite event ledger. It records LLM calls and publish
// attempts; the question pool itself lives in the JSON file (see
// QuestionFile).
type Store struct {
	db  *sql.DB
	seq *sequenceCounter
}

const schema = `
CREATE TABLE IF NOT EXISTS llm_request_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	sequence      INTEGER NOT NULL UNIQUE,
	timestamp     INTEGER NOT NULL,
	provider      TEXT    NOT NULL,
	model         TEXT    NOT NULL,
	purpose       TEXT    NOT NULL,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	latency_ms    INTEGER NOT NULL DEFAULT 0,
	success       BOOLEAN NOT NULL,
	error_message TEXT    NOT NULL DEFAULT '',
	request_body  TEXT    NOT NULL DEFAULT '',
	response_body TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS llm_request_events_purpose ON llm_request_events (purpose);

CREATE TABLE IF NOT EXISTS post_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	sequence      INTEGER NOT NULL UNIQUE,
	timestamp     INTEGER NOT NULL,
	run_id        TEXT    NOT NULL,
	question_id   INTEGER NOT NULL,
	variant       BOOLEAN NOT NULL DEFAULT 0,
	success       BOOLEAN NOT NULL,
	message_id    INTEGER NOT NULL DEFAULT 0,
	status_code   INTEGER NOT NULL DEFAULT 0,
	error_message TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS post_events_question ON post_events (question_id);
`

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, seq: seq}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// EventRepo returns the ledger's append side.
func (s *Store) EventRepo() EventRepo {
	return &eventRepo{db: s.db, seq: s.seq}
}

// EventQuerier returns the ledger's read side.
func (s *Store) EventQuerier() EventQuerier {
	return &eventRepo{db: s.db, seq: s.seq}
}

// applyPragmas configures SQLite for a single writer.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
