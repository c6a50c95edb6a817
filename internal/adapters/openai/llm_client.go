package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/llm-email-triage/internal/adapters/prompt"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ModelName returns the configured model identifier
func (c *OpenAIClient) ModelName() string {
	return c.modelName
}

// ClassifyIntent asks the model to classify the email into one of the known
// intent categories
func (c *OpenAIClient) ClassifyIntent(ctx context.Context, email *core.Email, evidence *core.EvidenceBag) (*core.RawClassification, error) {
	body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	userPrompt := prompt.BuildClassify(email, body, evidence)

	responseText, err := c.complete(ctx, userPrompt)
	if err != nil {
		return nil, err
	}

	raw, err := prompt.ParseClassification(responseText)
	if err != nil {
		c.logger.Warn("Unparseable classification response from OpenAI",
			zap.String("email_id", email.EmailID),
			zap.String("model", c.modelName))
		return nil, err
	}
	return raw, nil
}

// GenerateReply asks the model to draft a reply for the email
func (c *OpenAIClient) GenerateReply(ctx context.Context, email *core.Email, intent core.Intent, evidence *core.EvidenceBag) (string, error) {
	body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	userPrompt := prompt.BuildReply(email, body, intent, evidence)

	responseText, err := c.complete(ctx, userPrompt)
	if err != nil {
		return "", err
	}

	reply := strings.TrimSpace(responseText)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply from OpenAI", core.ErrLLMMalformedOutput)
	}
	return reply, nil
}

// complete runs a single chat completion and returns the response text
func (c *OpenAIClient) complete(ctx context.Context, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: prompt.SystemContext,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: OpenAI request: %v", core.ErrLLMTimeout, err)
		}
		return "", fmt.Errorf("%w: failed to create chat completion with OpenAI: %v", core.ErrLLMUnavailable, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response from OpenAI", core.ErrLLMMalformedOutput)
	}

	return resp.Choices[0].Message.Content, nil
}
