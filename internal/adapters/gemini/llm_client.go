package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/llm-email-triage/internal/adapters/prompt"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/utils"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(prompt.SystemContext)},
	}

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ModelName returns the configured model identifier
func (c *GeminiClient) ModelName() string {
	return c.modelName
}

// ClassifyIntent asks the model to classify the email into one of the known
// intent categories
func (c *GeminiClient) ClassifyIntent(ctx context.Context, email *core.Email, evidence *core.EvidenceBag) (*core.RawClassification, error) {
	body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	userPrompt := prompt.BuildClassify(email, body, evidence)

	responseText, err := c.generate(ctx, userPrompt)
	if err != nil {
		return nil, err
	}

	raw, err := prompt.ParseClassification(responseText)
	if err != nil {
		c.logger.Warn("Unparseable classification response from Gemini",
			zap.String("email_id", email.EmailID),
			zap.String("model", c.modelName))
		return nil, err
	}
	return raw, nil
}

// GenerateReply asks the model to draft a reply for the email
func (c *GeminiClient) GenerateReply(ctx context.Context, email *core.Email, intent core.Intent, evidence *core.EvidenceBag) (string, error) {
	body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	userPrompt := prompt.BuildReply(email, body, intent, evidence)

	responseText, err := c.generate(ctx, userPrompt)
	if err != nil {
		return "", err
	}

	reply := strings.TrimSpace(responseText)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply from Gemini", core.ErrLLMMalformedOutput)
	}
	return reply, nil
}

// generate runs a single content generation and returns the response text
func (c *GeminiClient) generate(ctx context.Context, userPrompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: Gemini request: %v", core.ErrLLMTimeout, err)
		}
		return "", fmt.Errorf("%w: failed to generate content with Gemini: %v", core.ErrLLMUnavailable, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response from Gemini", core.ErrLLMMalformedOutput)
	}

	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
