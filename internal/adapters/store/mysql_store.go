package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the ResultStore interface
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL result store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS triage_results (
			email_id VARCHAR(255) PRIMARY KEY,
			intent VARCHAR(64),
			confidence DOUBLE,
			action_type VARCHAR(32),
			escalated BOOLEAN,
			result_json MEDIUMTEXT,
			created_at TIMESTAMP,
			INDEX idx_triage_intent (intent)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// Save stores a result bundle, replacing any previous bundle for the same email
func (s *MySQLStore) Save(ctx context.Context, result *core.EmailResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO triage_results
		(email_id, intent, confidence, action_type, escalated, result_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
		intent = VALUES(intent),
		confidence = VALUES(confidence),
		action_type = VALUES(action_type),
		escalated = VALUES(escalated),
		result_json = VALUES(result_json),
		created_at = VALUES(created_at)
	`,
		result.Email.EmailID,
		string(result.Classification.Intent),
		result.Classification.Confidence,
		string(result.Action.ActionType),
		result.Escalation.Escalate,
		string(data),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	s.logger.Debug("Stored result", zap.String("email_id", result.Email.EmailID))
	return nil
}

// Get retrieves a result bundle by email id
func (s *MySQLStore) Get(ctx context.Context, emailID string) (*core.EmailResult, error) {
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
