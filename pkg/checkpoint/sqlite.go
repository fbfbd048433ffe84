package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/killallgit/loom/pkg/chat"
	"github.com/killallgit/loom/pkg/logger"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite. One row per checkpoint; the
// (thread_id, seq) primary key plus the max-seq query give the total order
// the resumption contract needs.
type SQLiteStore struct {
	db  *sql.DB
	log *logger.Logger
}

// NewSQLiteStore creates a SQLite checkpoint store at the given path. The
// schema is created if it doesn't exist; parent directories too.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening checkpoint database: %w", err)
	}

	// WAL keeps concurrent sessions on different threads from serializing
	// on the writer lock.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:  db,
		log: logger.WithComponent("checkpoint"),
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS checkpoints (
			thread_id  TEXT NOT NULL,
			seq        INTEGER NOT NULL,
			state      BLOB NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (thread_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_checkpoints_thread
			ON checkpoints(thread_id, seq DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Save implements Store. The sequence number is assigned inside the insert
// transaction, so two writers on the same thread can never produce the same
// seq.
func (s *SQLiteStore) Save(ctx context.Context, threadID string, state chat.State) (int64, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("encoding state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM checkpoints WHERE thread_id = ?`,
		threadID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("assigning sequence number: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO checkpoints (thread_id, seq, state, created_at) VALUES (?, ?, ?, ?)`,
		threadID, seq, payload, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting checkpoint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing checkpoint: %w", err)
	}

	s.log.Debug("saved checkpoint thread=%s seq=%d messages=%d", threadID, seq, len(state.Messages))
	return seq, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, threadID string) (chat.State, int64, error) {
	var payload []byte
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT state, seq FROM checkpoints WHERE thread_id = ? ORDER BY seq DESC LIMIT 1`,
		threadID,
	).Scan(&payload, &seq)
	if errors.Is(err, sql.ErrNoRows) {
		return chat.State{}, 0, ErrNoCheckpoint
	}
	if err != nil {
		return chat.State{}, 0, fmt.Errorf("loading checkpoint: %w", err)
	}

	var state chat.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return chat.State{}, 0, fmt.Errorf("decoding checkpoint %d for thread %s: %w", seq, threadID, err)
	}

	return state, seq, nil
}

// Close implements Store
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
