// Package extract resolves attachment references into raw document text and
// best-effort field guesses for downstream evidence normalization.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// TextExtractor reads pre-extracted document text from a directory. Each
// attachment reference resolves to a sidecar .txt file holding the text
// content of the original document.
type TextExtractor struct {
	dir    string
	logger *zap.Logger
}

// NewTextExtractor creates a new text extractor over the given directory
func NewTextExtractor(dir string, logger *zap.Logger) *TextExtractor {
	return &TextExtractor{
		dir:    dir,
		logger: logger,
	}
}

// Extract resolves one attachment reference. A missing or unreadable document
// degrades to an empty RawDocument so one bad attachment never fails the
// whole email.
func (e *TextExtractor) Extract(ctx context.Context, ref string) (*core.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := e.readDocument(ref)
	if err != nil {
		e.logger.Warn("Document unavailable, continuing without it",
			zap.String("ref", ref),
			zap.Error(err))
		return &core.RawDocument{Ref: ref}, nil
	}

	doc := &core.RawDocument{
		Ref:  ref,
		Text: string(data),
	}
	parseLabeledFields(doc)

	e.logger.Debug("Extracted document",
		zap.String("ref", ref),
		zap.Int("size", len(doc.Text)))

	return doc, nil
}

// readDocument tries the reference as-is, then its .txt sidecar
func (e *TextExtractor) readDocument(ref string) ([]byte, error) {
	base := filepath.Base(ref) // never escape the document directory

	candidates := []string{filepath.Join(e.dir, base)}
	if ext := filepath.Ext(base); ext != "" && ext != ".txt" {
		candidates = append(candidates, filepath.Join(e.dir, strings.TrimSuffix(base, ext)+".txt"))
	}

	var lastErr error
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return data, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no readable document for %s: %w", ref, lastErr)
}

// parseLabeledFields scans "Label: value" lines for structured field guesses.
// Bank document layouts label their fields, so this catches values the
// pattern scan alone would miss.
func parseLabeledFields(doc *core.RawDocument) {
	for _, line := range strings.Split(doc.Text, "\n") {
		label, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		label = strings.ToLower(strings.TrimSpace(label))
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		switch {
		case strings.Contains(label, "account number"):
			doc.AccountNumbers = append(doc.AccountNumbers, value)
		case strings.Contains(label, "amount"),
			strings.Contains(label, "income"),
			strings.Contains(label, "revenue"):
			doc.Amounts = append(doc.Amounts, value)
		case strings.Contains(label, "date"):
			doc.Dates = append(doc.Dates, value)
		case strings.Contains(label, "name"),
			strings.Contains(label, "holder"):
			doc.Names = append(doc.Names, value)
		}
	}
}
