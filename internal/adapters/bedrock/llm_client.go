package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-email-triage/internal/adapters/prompt"
	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/utils"
	"go.uber.org/zap"
)

// BedrockClient is an implementation of the LLMClient interface using Amazon Bedrock
type BedrockClient struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewBedrockClient creates a new Bedrock client
func NewBedrockClient(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockClient {
	return &BedrockClient{
		client:        client,
		modelID:       modelID,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ModelName returns the configured model identifier
func (c *BedrockClient) ModelName() string {
	return c.modelID
}

// ClassifyIntent asks the model to classify the email into one of the known
// intent categories
func (c *BedrockClient) ClassifyIntent(ctx context.Context, email *core.Email, evidence *core.EvidenceBag) (*core.RawClassification, error) {
	body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	userPrompt := prompt.BuildClassify(email, body, evidence)

	responseText, err := c.invoke(ctx, userPrompt)
	if err != nil {
		return nil, err
	}

	raw, err := prompt.ParseClassification(responseText)
	if err != nil {
		c.logger.Warn("Unparseable classification response from Bedrock",
			zap.String("email_id", email.EmailID),
			zap.String("model", c.modelID))
		return nil, err
	}
	return raw, nil
}

// GenerateReply asks the model to draft a reply for the email
func (c *BedrockClient) GenerateReply(ctx context.Context, email *core.Email, intent core.Intent, evidence *core.EvidenceBag) (string, error) {
	body := c.textProcessor.ProcessText(email.Body, c.maxBodySize)
	userPrompt := prompt.BuildReply(email, body, intent, evidence)

	responseText, err := c.invoke(ctx, userPrompt)
	if err != nil {
		return "", err
	}

	reply := strings.TrimSpace(responseText)
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply from Bedrock model", core.ErrLLMMalformedOutput)
	}
	return reply, nil
}

// invoke calls the Bedrock API with a model-specific payload and extracts the
// response text
func (c *BedrockClient) invoke(ctx context.Context, userPrompt string) (string, error) {
	fullPrompt := prompt.SystemContext + "\n\n" + userPrompt

	var payload []byte
	var err error

	if c.isAnthropicModel() {
		// Anthropic Claude models
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", fullPrompt),
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	} else if c.isAmazonTitanModel() {
		// Amazon Titan models
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": fullPrompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	} else {
		// Default to a generic format
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      fullPrompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}

	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: Bedrock request: %v", core.ErrLLMTimeout, err)
		}
		return "", fmt.Errorf("%w: failed to invoke Bedrock model: %v", core.ErrLLMUnavailable, err)
	}

	var responseText string

	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(resp.Body, &claudeResp); err != nil {
			return "", fmt.Errorf("%w: failed to unmarshal Claude response: %v", core.ErrLLMMalformedOutput, err)
		}
		responseText = claudeResp.Completion
	} else if c.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(resp.Body, &titanResp); err != nil {
			return "", fmt.Errorf("%w: failed to unmarshal Titan response: %v", core.ErrLLMMalformedOutput, err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("%w: empty response from Titan model", core.ErrLLMMalformedOutput)
		}
		responseText = titanResp.Results[0].OutputText
	} else {
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(resp.Body, &genericResp); err != nil {
			return "", fmt.Errorf("%w: failed to unmarshal generic response: %v", core.ErrLLMMalformedOutput, err)
		}

		if genericResp.Output != "" {
			responseText = genericResp.Output
		} else if genericResp.Text != "" {
			responseText = genericResp.Text
		} else if genericResp.Response != "" {
			responseText = genericResp.Response
		} else {
			responseText = string(resp.Body)
		}
	}

	return responseText, nil
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}
