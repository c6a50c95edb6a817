package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/evidence"
	"github.com/mikey/llm-email-triage/internal/factory"
	"github.com/mikey/llm-email-triage/internal/logging"
	"github.com/mikey/llm-email-triage/internal/templates"
	"github.com/mikey/llm-email-triage/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewSourceFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStoreFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewExtractorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register email source
	if err := container.Provide(func(f *factory.SourceFactory) (core.EmailSource, error) {
		return f.CreateEmailSource()
	}); err != nil {
		return nil, err
	}

	// Register result store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ResultStore, error) {
		return f.CreateResultStore()
	}); err != nil {
		return nil, err
	}

	// Register document extractor
	if err := container.Provide(func(f *factory.ExtractorFactory) core.DocumentExtractor {
		return f.CreateDocumentExtractor()
	}); err != nil {
		return nil, err
	}

	// Register intent catalog
	if err := container.Provide(core.DefaultIntentCatalog); err != nil {
		return nil, err
	}

	// Register template catalog
	if err := container.Provide(func(cfg *config.Config) (*core.TemplateCatalog, error) {
		path := cfg.GetString("templates.path")
		if path == "" {
			return templates.Default(), nil
		}
		return templates.Load(path)
	}); err != nil {
		return nil, err
	}

	// Register evidence normalizer
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.EvidenceNormalizer {
		return evidence.NewNormalizer(logger, cfg.GetStringSlice("evidence.name_exclusions"))
	}); err != nil {
		return nil, err
	}

	// Register classifier rate limiter (nil when unthrottled)
	if err := container.Provide(func(cfg *config.Config) *rate.Limiter {
		rps := cfg.GetFloat64("pipeline.requests_per_second")
		if rps <= 0 {
			return nil
		}
		return rate.NewLimiter(rate.Limit(rps), 1)
	}); err != nil {
		return nil, err
	}

	// Register classification policy
	if err := container.Provide(func(
		llm core.LLMClient,
		catalog *core.IntentCatalog,
		logger *zap.Logger,
		cfg *config.Config,
		limiter *rate.Limiter,
	) (*core.ClassificationPolicy, error) {
		timeout, err := cfg.GetDuration("pipeline.classify_timeout")
		if err != nil {
			return nil, err
		}
		return core.NewClassificationPolicy(llm, catalog, logger, timeout, limiter), nil
	}); err != nil {
		return nil, err
	}

	// Register escalation engine and action resolver
	if err := container.Provide(core.NewEscalationEngine); err != nil {
		return nil, err
	}
	if err := container.Provide(core.NewActionResolver); err != nil {
		return nil, err
	}

	// Register response composer
	if err := container.Provide(func(
		llm core.LLMClient,
		catalog *core.TemplateCatalog,
		logger *zap.Logger,
		cfg *config.Config,
	) (*core.ResponseComposer, error) {
		timeout, err := cfg.GetDuration("pipeline.generate_timeout")
		if err != nil {
			return nil, err
		}
		return core.NewResponseComposer(llm, catalog, logger, timeout), nil
	}); err != nil {
		return nil, err
	}

	// Register batch orchestrator
	if err := container.Provide(func(
		extractor core.DocumentExtractor,
		normalizer core.EvidenceNormalizer,
		policy *core.ClassificationPolicy,
		escalation *core.EscalationEngine,
		resolver *core.ActionResolver,
		composer *core.ResponseComposer,
		store core.ResultStore,
		logger *zap.Logger,
		cfg *config.Config,
	) *core.BatchOrchestrator {
		return core.NewBatchOrchestrator(
			extractor,
			normalizer,
			policy,
			escalation,
			resolver,
			composer,
			store,
			logger,
			cfg.GetInt("pipeline.workers"),
		)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
