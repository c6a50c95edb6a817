// Package store provides ResultStore implementations for persisting
// processed email bundles.
package store

import (
	"context"
	"sync"

	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the ResultStore interface
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*core.EmailResult
	logger  *zap.Logger
}

// NewMemoryStore creates a new in-memory result store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		results: make(map[string]*core.EmailResult),
		logger:  logger,
	}
}

// Save stores a result bundle, replacing any previous bundle for the same email
func (s *MemoryStore) Save(_ context.Context, result *core.EmailResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.Email.EmailID] = result
	s.logger.Debug("Stored result", zap.String("email_id", result.Email.EmailID))
	return nil
}

// Get retrieves a result bundle by email id
func (s *MemoryStore) Get(_ context.Context, emailID string) (*core.EmailResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[emailID]
	if !ok {
		return nil, core.ErrResultNotFound
	}
	return result, nil
}

// Close releases the store
func (s *MemoryStore) Close() error {
	return nil
}
