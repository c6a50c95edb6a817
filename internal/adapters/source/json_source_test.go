package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestJSONSourceLoad(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "email_002.json", `{
		"email_id": "e2",
		"sender": "bob@example.com",
		"sender_name": "Bob",
		"subject": "Card blocked",
		"body": "My card stopped working.",
		"date": "2024-01-16T10:00:00",
		"priority": "high",
		"requires_response": true,
		"attachments": ["statement.pdf"]
	}`)
	writeFile(t, dir, "email_001.json", `{
		"email_id": "e1",
		"sender": "alice@example.com",
		"subject": "Loan question",
		"body": "I would like a home loan.",
		"date": "2024-01-15"
	}`)
	writeFile(t, dir, "notes.txt", "not an email")

	s := NewJSONSource(dir, false, zap.NewNop())
	emails, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(emails) != 2 {
		t.Fatalf("loaded %d emails, want 2", len(emails))
	}
	// Lexical file order
	if emails[0].EmailID != "e1" || emails[1].EmailID != "e2" {
		t.Errorf("order = %s, %s", emails[0].EmailID, emails[1].EmailID)
	}

	e1 := emails[0]
	if e1.Priority != core.PriorityMedium {
		t.Errorf("missing priority should default to medium, got %q", e1.Priority)
	}
	if !e1.RequiresResponse {
		t.Error("missing requires_response should default to true")
	}
	if e1.Attachments == nil || len(e1.Attachments) != 0 {
		t.Errorf("attachments = %v, want empty non-nil", e1.Attachments)
	}
	if e1.Date != time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) {
		t.Errorf("date = %v", e1.Date)
	}

	if emails[1].Priority != core.PriorityHigh {
		t.Errorf("priority = %q, want high", emails[1].Priority)
	}
}

func TestJSONSourceSkipsInvalidRecords(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "a_bad_syntax.json", `{not json`)
	writeFile(t, dir, "b_missing_id.json", `{"sender": "x@example.com", "subject": "hi", "body": "hello"}`)
	writeFile(t, dir, "c_bad_priority.json", `{"email_id": "e3", "sender": "x@example.com", "subject": "hi", "body": "hello", "priority": "whenever"}`)
	writeFile(t, dir, "d_valid.json", `{"email_id": "e4", "sender": "x@example.com", "subject": "hi", "body": "hello"}`)

	s := NewJSONSource(dir, false, zap.NewNop())
	emails, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(emails) != 1 || emails[0].EmailID != "e4" {
		t.Errorf("emails = %v, want only e4", emails)
	}
	if s.Skipped() != 3 {
		t.Errorf("skipped = %d, want 3", s.Skipped())
	}
}

func TestJSONSourceMissingDirectory(t *testing.T) {
	s := NewJSONSource(filepath.Join(t.TempDir(), "absent"), false, zap.NewNop())
	emails, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(emails) != 0 {
		t.Errorf("emails = %d, want 0", len(emails))
	}
}

func TestJSONSourceSortsByPriority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "email_001.json", `{"email_id": "low", "sender": "a@x.com", "subject": "s", "body": "b", "priority": "low"}`)
	writeFile(t, dir, "email_002.json", `{"email_id": "critical", "sender": "a@x.com", "subject": "s", "body": "b", "priority": "critical"}`)
	writeFile(t, dir, "email_003.json", `{"email_id": "medium-1", "sender": "a@x.com", "subject": "s", "body": "b"}`)
	writeFile(t, dir, "email_004.json", `{"email_id": "medium-2", "sender": "a@x.com", "subject": "s", "body": "b"}`)

	s := NewJSONSource(dir, true, zap.NewNop())
	emails, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got := make([]string, len(emails))
	for i, e := range emails {
		got[i] = e.EmailID
	}
	// Stable sort: equal priorities keep file order
	want := []string{"critical", "medium-1", "medium-2", "low"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestDecodeEmailValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
		ok   bool
	}{
		{"valid", `{"email_id": "e1", "sender": "a@x.com", "subject": "s", "body": "b"}`, true},
		{"subject only", `{"email_id": "e1", "sender": "a@x.com", "subject": "s"}`, true},
		{"missing sender", `{"email_id": "e1", "subject": "s", "body": "b"}`, false},
		{"empty subject and body", `{"email_id": "e1", "sender": "a@x.com"}`, false},
		{"bad date", `{"email_id": "e1", "sender": "a@x.com", "subject": "s", "body": "b", "date": "yesterday"}`, false},
		{"priority case folded", `{"email_id": "e1", "sender": "a@x.com", "subject": "s", "body": "b", "priority": "HIGH"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeEmail([]byte(tt.data))
			if (err == nil) != tt.ok {
				t.Errorf("DecodeEmail error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}
