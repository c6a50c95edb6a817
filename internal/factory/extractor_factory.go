package factory

import (
	"github.com/mikey/llm-email-triage/internal/adapters/extract"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// ExtractorFactory creates document extractors
type ExtractorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewExtractorFactory creates a new extractor factory
func NewExtractorFactory(cfg *config.Config, logger *zap.Logger) *ExtractorFactory {
	return &ExtractorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDocumentExtractor creates a document extractor based on the configuration
func (f *ExtractorFactory) CreateDocumentExtractor() core.DocumentExtractor {
	dir := f.cfg.GetString("extract.document_dir")
	return extract.NewTextExtractor(dir, f.logger)
}
