package factory

import (
	"fmt"

	"github.com/mikey/llm-email-triage/internal/adapters/source"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

// SourceFactory creates email sources based on configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateEmailSource creates an email source based on the configuration
func (f *SourceFactory) CreateEmailSource() (core.EmailSource, error) {
	sourceType := f.cfg.GetString("source.type")
	sortByPriority := f.cfg.GetBool("pipeline.sort_by_priority")

	switch sourceType {
	case "json":
		dir := f.cfg.GetString("source.email_dir")
		return source.NewJSONSource(dir, sortByPriority, f.logger), nil
	case "watch":
		dir := f.cfg.GetString("source.email_dir")
		return source.NewWatchSource(dir, sortByPriority, f.logger), nil
	case "kafka":
		idleTimeout, err := f.cfg.GetDuration("source.kafka.idle_timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid kafka idle timeout: %w", err)
		}
		return source.NewKafkaSource(
			f.cfg.GetStringSlice("source.kafka.brokers"),
			f.cfg.GetString("source.kafka.topic"),
			f.cfg.GetString("source.kafka.group_id"),
			idleTimeout,
			sortByPriority,
			f.logger,
		), nil
	case "smtp":
		drainTimeout, err := f.cfg.GetDuration("source.smtp.drain_timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid smtp drain timeout: %w", err)
		}
		return source.NewSMTPSource(
			f.cfg.GetString("source.smtp.listen_address"),
			f.cfg.GetString("source.smtp.domain"),
			drainTimeout,
			sortByPriority,
			f.logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", sourceType)
	}
}
