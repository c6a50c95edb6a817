package core

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClassificationPolicy wraps the external classifier and enforces the
// closed-intent invariant: whatever the model returns, the Classification
// leaving this component carries a valid intent and a clamped confidence.
type ClassificationPolicy struct {
	llm     LLMClient
	catalog *IntentCatalog
	logger  *zap.Logger
	timeout time.Duration
	limiter *rate.Limiter
}

// NewClassificationPolicy creates a new classification policy. A nil limiter
// disables rate limiting; a zero timeout disables the call deadline.
func NewClassificationPolicy(
	llm LLMClient,
	catalog *IntentCatalog,
	logger *zap.Logger,
	timeout time.Duration,
	limiter *rate.Limiter,
) *ClassificationPolicy {
	return &ClassificationPolicy{
		llm:     llm,
		catalog: catalog,
		logger:  logger,
		timeout: timeout,
		limiter: limiter,
	}
}

// Classify calls the external classifier once for the email and validates the
// result. It never returns an error: a failed or malformed call degrades to
// general_inquiry with attenuated confidence.
func (p *ClassificationPolicy) Classify(ctx context.Context, email *Email, evidence *EvidenceBag) *Classification {
	raw := p.callClassifier(ctx, email, evidence)

	intent := Intent(strings.ToLower(strings.TrimSpace(raw.Intent)))
	confidence := clampConfidence(raw.Confidence)

	if !ValidIntent(intent) {
		p.logger.Warn("Intent outside taxonomy, coercing to general_inquiry",
			zap.String("email_id", email.EmailID),
			zap.String("returned_intent", raw.Intent))
		intent = IntentGeneralInquiry
		confidence = math.Max(0.5, confidence*0.7)
	}

	c := &Classification{
		EmailID:      email.EmailID,
		Intent:       intent,
		Confidence:   confidence,
		SubCategory:  strings.TrimSpace(raw.SubCategory),
		Reasoning:    strings.TrimSpace(raw.Reasoning),
		ModelUsed:    p.llm.ModelName(),
		ClassifiedAt: time.Now(),
	}

	p.logger.Info("Email classified",
		zap.String("email_id", email.EmailID),
		zap.String("intent", string(c.Intent)),
		zap.Float64("confidence", c.Confidence))

	return c
}

// callClassifier performs the single external call with the configured rate
// limit and deadline. Any failure collapses to the internal unknown sentinel.
func (p *ClassificationPolicy) callClassifier(ctx context.Context, email *Email, evidence *EvidenceBag) *RawClassification {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.logger.Warn("Rate limiter wait aborted", zap.Error(err), zap.String("email_id", email.EmailID))
			return failedClassification()
		}
	}

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	raw, err := p.llm.ClassifyIntent(callCtx, email, evidence)
	if err != nil {
		p.logger.Warn("Classifier call failed",
			zap.Error(err),
			zap.String("email_id", email.EmailID))
		return failedClassification()
	}
	if raw == nil {
		return failedClassification()
	}
	return raw
}

// failedClassification is the internal sentinel for a failed classifier call.
// The validation pass in Classify remaps it before the result escapes.
func failedClassification() *RawClassification {
	return &RawClassification{
		Intent:     string(intentUnknown),
		Confidence: 0.0,
		Reasoning:  "classification failed",
	}
}

// AnalyzeQuality computes the deterministic quality rubric for a finalized
// classification: confidence contributes up to 60 points, a closed-set intent
// 20, non-empty reasoning 10, a sub-category 10.
func (p *ClassificationPolicy) AnalyzeQuality(c *Classification) *ClassificationQuality {
	q := &ClassificationQuality{
		Confidence:      c.Confidence,
		ConfidenceLevel: ConfidenceLevel(c.Confidence),
		NeedsReview:     c.Confidence < 0.6,
		ValidIntent:     ValidIntent(c.Intent),
		HasReasoning:    c.Reasoning != "",
		HasSubCategory:  c.SubCategory != "",
	}

	score := c.Confidence * 60
	if q.ValidIntent {
		score += 20
	}
	if q.HasReasoning {
		score += 10
	}
	if q.HasSubCategory {
		score += 10
	}
	q.QualityScore = math.Round(score*10) / 10

	return q
}

// ConfidenceLevel buckets a confidence value into high/medium/low
func ConfidenceLevel(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "high"
	case confidence >= 0.6:
		return "medium"
	default:
		return "low"
	}
}

// clampConfidence bounds a confidence value to [0.0, 1.0]. NaN maps to 0.
func clampConfidence(c float64) float64 {
	if math.IsNaN(c) {
		return 0.0
	}
	if c < 0.0 {
		return 0.0
	}
	if c > 1.0 {
		return 1.0
	}
	return c
}
