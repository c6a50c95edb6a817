package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mikey/llm-email-triage/internal/adapters/source"
	"github.com/mikey/llm-email-triage/internal/config"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/evidence"
	"github.com/mikey/llm-email-triage/internal/factory"
	"github.com/mikey/llm-email-triage/internal/logging"
	"github.com/mikey/llm-email-triage/internal/templates"
	"go.uber.org/zap"
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "openai", "LLM provider (bedrock, gemini, openai)")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for LLM response")
	temperature = flag.Float64("temperature", 0.3, "Temperature for LLM generation")
	topP        = flag.Float64("top-p", 0.9, "Top-p for LLM generation")
	maxBodySize = flag.Int("max-body-size", 4096, "Maximum email body size to send to LLM")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-pro", "Gemini model name")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")

	// Pipeline flags
	documentDir     = flag.String("document-dir", "data/sample_documents", "Directory holding extracted attachment text")
	classifyTimeout = flag.Duration("classify-timeout", 30*time.Second, "Timeout for the classification call")
	generateTimeout = flag.Duration("generate-timeout", 30*time.Second, "Timeout for the reply generation call")

	// Input flags
	inputFile  = flag.String("file", "", "Input email JSON file (required)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *inputFile == "" {
		logger.Fatal("No input file specified, use -file")
	}

	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		cfg = createConfigFromFlags()
	}

	// Load the email
	email, err := source.LoadEmailFile(*inputFile)
	if err != nil {
		logger.Fatal("Failed to load email file", zap.Error(err), zap.String("file", *inputFile))
	}

	// Assemble the pipeline components directly
	textProcessor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()
	llmClient, err := factory.NewLLMFactory(cfg, logger, textProcessor).CreateLLMClient()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	extractor := factory.NewExtractorFactory(cfg, logger).CreateDocumentExtractor()
	normalizer := evidence.NewNormalizer(logger, cfg.GetStringSlice("evidence.name_exclusions"))
	policy := core.NewClassificationPolicy(llmClient, core.DefaultIntentCatalog(), logger, *classifyTimeout, nil)
	escalation := core.NewEscalationEngine()
	resolver := core.NewActionResolver()
	composer := core.NewResponseComposer(llmClient, templates.Default(), logger, *generateTimeout)

	ctx := context.Background()

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("Email ID: %s\n", email.EmailID)
	fmt.Printf("From: %s <%s>\n", email.SenderName, email.Sender)
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Priority: %s\n", email.Priority)
	meta := email.Metadata()
	fmt.Printf("Attachments: %d\n", meta.AttachmentCount)
	fmt.Printf("Body length: %d bytes (%d words)\n", meta.BodyLength, meta.WordCount)

	fmt.Printf("\n=== Analysis ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetString("llm.provider"))
	fmt.Printf("Model: %s\n", llmClient.ModelName())

	startTime := time.Now()

	// Collect evidence from attachments
	docs := make([]*core.RawDocument, 0, len(email.Attachments))
	for _, ref := range email.Attachments {
		doc, err := extractor.Extract(ctx, ref)
		if err != nil {
			logger.Fatal("Failed to extract document", zap.Error(err), zap.String("ref", ref))
		}
		docs = append(docs, doc)
	}
	bag := normalizer.Normalize(email.EmailID, docs)

	if !bag.IsEmpty() {
		fmt.Printf("\n=== Evidence ===\n")
		if len(bag.AccountNumbers) > 0 {
			fmt.Printf("Account numbers: %s\n", strings.Join(bag.AccountNumbers, ", "))
		}
		if len(bag.Amounts) > 0 {
			amounts := make([]string, len(bag.Amounts))
			for i, amt := range bag.Amounts {
				amounts[i] = fmt.Sprintf("$%.2f", amt)
			}
			fmt.Printf("Amounts: %s\n", strings.Join(amounts, ", "))
		}
		if len(bag.Dates) > 0 {
			fmt.Printf("Dates: %s\n", strings.Join(bag.Dates, ", "))
		}
		if len(bag.Names) > 0 {
			fmt.Printf("Names: %s\n", strings.Join(bag.Names, ", "))
		}
	}

	// Classify and decide
	classification := policy.Classify(ctx, email, bag)
	quality := policy.AnalyzeQuality(classification)
	esc := escalation.ShouldEscalate(classification, email.Priority)
	action := resolver.Resolve(email, classification)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Intent: %s\n", classification.Intent)
	fmt.Printf("Confidence: %.4f (%s)\n", classification.Confidence, quality.ConfidenceLevel)
	if classification.SubCategory != "" {
		fmt.Printf("Sub-category: %s\n", classification.SubCategory)
	}
	fmt.Printf("Reasoning: %s\n", classification.Reasoning)
	fmt.Printf("Quality score: %.1f\n", quality.QualityScore)
	fmt.Printf("Needs review: %t\n", quality.NeedsReview)
	fmt.Printf("Escalate: %t (%s)\n", esc.Escalate, esc.Reason)
	fmt.Printf("Action: %s -> %s (%s)\n", action.ActionType, action.AssignedTo, action.Reason)

	// Draft a reply when one is warranted
	if email.RequiresResponse {
		response := composer.Compose(ctx, email, classification.Intent, bag)
		fmt.Printf("\n=== Drafted Reply ===\n")
		fmt.Printf("Template: %s\n", displayTemplate(response.TemplateUsed))
		fmt.Printf("Word count: %d\n", response.WordCount)
		fmt.Printf("Quality: %d (%s)\n", response.QualityScore, response.QualityLevel)
		fmt.Printf("\n%s\n", response.ResponseText)
	}

	fmt.Printf("\nProcessing time: %v\n", time.Since(startTime))

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
}

func displayTemplate(name string) string {
	if name == "" {
		return "llm-generated"
	}
	return name
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", *provider)

	switch *provider {
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.top_p", *topP)
		v.Set("bedrock.max_body_size", *maxBodySize)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
		v.Set("gemini.max_tokens", *maxTokens)
		v.Set("gemini.temperature", *temperature)
		v.Set("gemini.top_p", *topP)
		v.Set("gemini.max_body_size", *maxBodySize)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.top_p", *topP)
		v.Set("openai.max_body_size", *maxBodySize)
	}

	v.Set("extract.document_dir", *documentDir)

	return config.NewFromViper(v)
}
