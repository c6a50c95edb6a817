package source

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// settleDelay gives the writer time to finish before the dropped file is read
const settleDelay = 100 * time.Millisecond

// WatchSource collects email JSON files dropped into a directory while the
// watch context is alive. Load returns the collected batch once the context
// is cancelled, which is the normal way to end a watch.
type WatchSource struct {
	dir            string
	sortByPriority bool
	logger         *zap.Logger
}

// NewWatchSource creates a new directory watch source
func NewWatchSource(dir string, sortByPriority bool, logger *zap.Logger) *WatchSource {
	return &WatchSource{
		dir:            dir,
		sortByPriority: sortByPriority,
		logger:         logger,
	}
}

// Load picks up the files already present, then watches for newly created
// *.json files until ctx is cancelled. Invalid files are skipped, never fatal.
func (s *WatchSource) Load(ctx context.Context) ([]*core.Email, error) {
	// Start with whatever is already in the directory
	initial := NewJSONSource(s.dir, false, s.logger)
	emails, err := initial.Load(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		seen[email.EmailID] = struct{}{}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return nil, err
	}

	s.logger.Info("Watching directory for new emails", zap.String("dir", s.dir))

	for {
		select {
		case <-ctx.Done():
			if s.sortByPriority {
				SortByPriority(emails)
			}
			s.logger.Info("Watch ended", zap.Int("collected", len(emails)))
			return emails, nil

		case event, ok := <-watcher.Events:
			if !ok {
				if s.sortByPriority {
					SortByPriority(emails)
				}
				return emails, nil
			}
			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if filepath.Ext(event.Name) != ".json" {
				continue
			}

			// Give the writer a moment to finish the file
			timer := time.NewTimer(settleDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				continue
			}

			email, err := LoadEmailFile(event.Name)
			if err != nil {
				s.logger.Warn("Skipping invalid email file",
					zap.String("file", event.Name),
					zap.Error(err))
				continue
			}
			if _, dup := seen[email.EmailID]; dup {
				s.logger.Debug("Ignoring duplicate email id",
					zap.String("email_id", email.EmailID))
				continue
			}
			seen[email.EmailID] = struct{}{}
			emails = append(emails, email)

		case err, ok := <-watcher.Errors:
			if !ok {
				continue
			}
			s.logger.Warn("Watcher error", zap.Error(err))
		}
	}
}
