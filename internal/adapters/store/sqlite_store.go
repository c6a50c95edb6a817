package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the ResultStore interface. The
// full bundle round-trips through a JSON column; the facet columns exist for
// ad-hoc querying.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite result store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS triage_results (
			email_id TEXT PRIMARY KEY,
			intent TEXT,
			confidence REAL,
			action_type TEXT,
			escalated BOOLEAN,
			result_json TEXT,
			created_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_triage_intent ON triage_results(intent)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Save stores a result bundle, replacing any previous bundle for the same email
func (s *SQLiteStore) Save(ctx context.Context, result *core.EmailResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO triage_results
		(email_id, intent, confidence, action_type, escalated, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		result.Email.EmailID,
		string(result.Classification.Intent),
		result.Classification.Confidence,
		string(result.Action.ActionType),
		result.Escalation.Escalate,
		string(data),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	s.logger.Debug("Stored result", zap.String("email_id", result.Email.EmailID))
	return nil
}

// Get retrieves a result bundle by email id
func (s *SQLiteStore) Get(ctx context.Context, emailID string) (*core.EmailResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT result_json FROM triage_results WHERE email_id = ?
	`, emailID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to query result: %w", err)
	}

	var result core.EmailResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// Close releases the database handle
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
