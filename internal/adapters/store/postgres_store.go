package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// PostgresStore is a PostgreSQL implementation of the ResultStore interface
// backed by a pgx connection pool
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore creates a new PostgreSQL result store
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS triage_results (
			email_id TEXT PRIMARY KEY,
			intent TEXT,
			confidence DOUBLE PRECISION,
			action_type TEXT,
			escalated BOOLEAN,
			result_json JSONB,
			created_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = pool.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_triage_intent ON triage_results(intent)
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &PostgresStore{pool: pool, logger: logger}, nil
}

// Save stores a result bundle, replacing any previous bundle for the same email
func (s *PostgresStore) Save(ctx context.Context, result *core.EmailResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO triage_results
		(email_id, intent, confidence, action_type, escalated, result_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email_id) DO UPDATE SET
		intent = EXCLUDED.intent,
		confidence = EXCLUDED.confidence,
		action_type = EXCLUDED.action_type,
		escalated = EXCLUDED.escalated,
		result_json = EXCLUDED.result_json,
		created_at = EXCLUDED.created_at
	`,
		result.Email.EmailID,
		string(result.Classification.Intent),
		result.Classification.Confidence,
		string(result.Action.ActionType),
		result.Escalation.Escalate,
		data,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	s.logger.Debug("Stored result", zap.String("email_id", result.Email.EmailID))
	return nil
}

// Get retrieves a result bundle by email id
func (s *PostgresStore) Get(ctx context.Context, emailID string) (*core.EmailResult, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT result_json FROM triage_results WHERE email_id = $1
	`, emailID).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to query result: %w", err)
	}

	var result core.EmailResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
