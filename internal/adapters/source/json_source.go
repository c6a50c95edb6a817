// Package source provides EmailSource implementations over the supported
// intake channels: JSON drop directories, directory watching, Kafka topics
// and a receiving SMTP server.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// emailRecord is the JSON wire representation of an inbound email
type emailRecord struct {
	EmailID          string   `json:"email_id"`
	Sender           string   `json:"sender"`
	SenderName       string   `json:"sender_name"`
	Subject          string   `json:"subject"`
	Body             string   `json:"body"`
	Date             string   `json:"date"`
	Priority         string   `json:"priority"`
	RequiresResponse *bool    `json:"requires_response"`
	Attachments      []string `json:"attachments"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// toEmail validates the record and converts it to the domain type. Records
// missing required fields or carrying unknown priorities are rejected.
func (r *emailRecord) toEmail() (*core.Email, error) {
	if r.EmailID == "" {
		return nil, fmt.Errorf("missing email_id")
	}
	if r.Sender == "" {
		return nil, fmt.Errorf("missing sender")
	}
	if r.Subject == "" && r.Body == "" {
		return nil, fmt.Errorf("empty subject and body")
	}

	var date time.Time
	if r.Date != "" {
		var err error
		for _, layout := range dateLayouts {
			if date, err = time.Parse(layout, r.Date); err == nil {
				break
			}
		}
		if err != nil {
			return nil, fmt.Errorf("unparseable date %q", r.Date)
		}
	}

	priority := core.PriorityMedium
	if r.Priority != "" {
		priority = core.Priority(strings.ToLower(r.Priority))
		if !core.ValidPriority(priority) {
			return nil, fmt.Errorf("unknown priority %q", r.Priority)
		}
	}

	requiresResponse := true
	if r.RequiresResponse != nil {
		requiresResponse = *r.RequiresResponse
	}

	attachments := r.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	return &core.Email{
		EmailID:          r.EmailID,
		Sender:           r.Sender,
		SenderName:       r.SenderName,
		Subject:          r.Subject,
		Body:             r.Body,
		Date:             date,
		Priority:         priority,
		RequiresResponse: requiresResponse,
		Attachments:      attachments,
	}, nil
}

// JSONSource loads emails from *.json files in a drop directory
type JSONSource struct {
	dir            string
	sortByPriority bool
	logger         *zap.Logger
	skipped        atomic.Int64
}

// NewJSONSource creates a new JSON directory source
func NewJSONSource(dir string, sortByPriority bool, logger *zap.Logger) *JSONSource {
	return &JSONSource{
		dir:            dir,
		sortByPriority: sortByPriority,
		logger:         logger,
	}
}

// Skipped returns the number of invalid records rejected during loading
func (s *JSONSource) Skipped() int {
	return int(s.skipped.Load())
}

// Load reads every *.json file in the directory in lexical order. Files that
// fail to decode or validate are skipped and counted, never fatal. An empty
// or missing directory yields an empty batch.
func (s *JSONSource) Load(ctx context.Context) ([]*core.Email, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Email directory does not exist", zap.String("dir", s.dir))
			return []*core.Email{}, nil
		}
		return nil, fmt.Errorf("failed to read email directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	emails := make([]*core.Email, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return emails, err
		}

		path := filepath.Join(s.dir, name)
		email, err := LoadEmailFile(path)
		if err != nil {
			s.skipped.Add(1)
			s.logger.Warn("Skipping invalid email file",
				zap.String("file", path),
				zap.Error(err))
			continue
		}
		emails = append(emails, email)
	}

	if s.sortByPriority {
		SortByPriority(emails)
	}

	s.logger.Info("Loaded emails from directory",
		zap.String("dir", s.dir),
		zap.Int("loaded", len(emails)),
		zap.Int64("skipped", s.skipped.Load()))

	return emails, nil
}

// LoadEmailFile reads and validates a single email JSON file
func LoadEmailFile(path string) (*core.Email, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return DecodeEmail(data)
}

// DecodeEmail decodes and validates one JSON email record
func DecodeEmail(data []byte) (*core.Email, error) {
	var record emailRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode email record: %w", err)
	}
	return record.toEmail()
}

// priorityRank orders priorities for sorting, most urgent first
var priorityRank = map[core.Priority]int{
	core.PriorityCritical: 0,
	core.PriorityHigh:     1,
	core.PriorityMedium:   2,
	core.PriorityLow:      3,
}

// SortByPriority stably reorders emails most-urgent-first
func SortByPriority(emails []*core.Email) {
	sort.SliceStable(emails, func(i, j int) bool {
		return priorityRank[emails[i].Priority] < priorityRank[emails[j].Priority]
	})
}
