package core

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
	"pgregory.net/rapid"
)

// mockLLM is a hand-rolled LLMClient for tests
type mockLLM struct {
	classifyFn func(ctx context.Context, email *Email, evidence *EvidenceBag) (*RawClassification, error)
	generateFn func(ctx context.Context, email *Email, intent Intent, evidence *EvidenceBag) (string, error)
}

func (m *mockLLM) ClassifyIntent(ctx context.Context, email *Email, evidence *EvidenceBag) (*RawClassification, error) {
	if m.classifyFn != nil {
		return m.classifyFn(ctx, email, evidence)
	}
	return &RawClassification{Intent: "general_inquiry", Confidence: 0.9}, nil
}

func (m *mockLLM) GenerateReply(ctx context.Context, email *Email, intent Intent, evidence *EvidenceBag) (string, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, email, intent, evidence)
	}
	return "", errors.New("generation not configured")
}

func (m *mockLLM) ModelName() string { return "mock-model" }

func testEmail(id string) *Email {
	return &Email{
		EmailID:          id,
		Sender:           "jane.doe@example.com",
		SenderName:       "Jane Doe",
		Subject:          "Question about my account",
		Body:             "I have a question about my savings account.",
		Priority:         PriorityMedium,
		RequiresResponse: true,
		Attachments:      []string{},
	}
}

func newTestPolicy(llm LLMClient) *ClassificationPolicy {
	return NewClassificationPolicy(llm, DefaultIntentCatalog(), zap.NewNop(), 0, nil)
}

func TestClassifyKeepsValidIntent(t *testing.T) {
	llm := &mockLLM{
		classifyFn: func(context.Context, *Email, *EvidenceBag) (*RawClassification, error) {
			return &RawClassification{
				Intent:      "fraud_complaint",
				Confidence:  0.92,
				SubCategory: "unauthorized_transaction",
				Reasoning:   "mentions unknown charges",
			}, nil
		},
	}
	p := newTestPolicy(llm)

	c := p.Classify(context.Background(), testEmail("e1"), nil)

	if c.Intent != IntentFraudComplaint {
		t.Errorf("intent = %q, want %q", c.Intent, IntentFraudComplaint)
	}
	if c.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", c.Confidence)
	}
	if c.SubCategory != "unauthorized_transaction" {
		t.Errorf("sub_category = %q", c.SubCategory)
	}
	if c.ModelUsed != "mock-model" {
		t.Errorf("model_used = %q", c.ModelUsed)
	}
}

func TestClassifyNormalizesLabelCase(t *testing.T) {
	llm := &mockLLM{
		classifyFn: func(context.Context, *Email, *EvidenceBag) (*RawClassification, error) {
			return &RawClassification{Intent: "  Loan_Request ", Confidence: 0.8}, nil
		},
	}
	c := newTestPolicy(llm).Classify(context.Background(), testEmail("e1"), nil)

	if c.Intent != IntentLoanRequest {
		t.Errorf("intent = %q, want %q", c.Intent, IntentLoanRequest)
	}
	if c.Confidence != 0.8 {
		t.Errorf("confidence = %v, want 0.8", c.Confidence)
	}
}

func TestClassifyCoercesOffTaxonomyLabels(t *testing.T) {
	tests := []struct {
		name       string
		label      string
		confidence float64
		wantConf   float64
	}{
		{"invented label", "spam", 0.9, 0.9 * 0.7},
		{"empty label", "", 0.9, 0.9 * 0.7},
		{"sentence label", "this is a loan request", 1.0, 0.7},
		{"low confidence floors at half", "billing", 0.1, 0.5},
		{"unknown sentinel", "unknown", 0.0, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockLLM{
				classifyFn: func(context.Context, *Email, *EvidenceBag) (*RawClassification, error) {
					return &RawClassification{Intent: tt.label, Confidence: tt.confidence}, nil
				},
			}
			c := newTestPolicy(llm).Classify(context.Background(), testEmail("e1"), nil)

			if c.Intent != IntentGeneralInquiry {
				t.Errorf("intent = %q, want %q", c.Intent, IntentGeneralInquiry)
			}
			if math.Abs(c.Confidence-tt.wantConf) > 1e-9 {
				t.Errorf("confidence = %v, want %v", c.Confidence, tt.wantConf)
			}
		})
	}
}

func TestClassifyFailureDegrades(t *testing.T) {
	llm := &mockLLM{
		classifyFn: func(context.Context, *Email, *EvidenceBag) (*RawClassification, error) {
			return nil, ErrLLMTimeout
		},
	}
	p := newTestPolicy(llm)

	c := p.Classify(context.Background(), testEmail("e1"), nil)

	if c.Intent != IntentGeneralInquiry {
		t.Errorf("intent = %q, want %q", c.Intent, IntentGeneralInquiry)
	}
	if c.Confidence != 0.5 {
		t.Errorf("confidence = %v, want 0.5", c.Confidence)
	}
	if c.Reasoning != "classification failed" {
		t.Errorf("reasoning = %q", c.Reasoning)
	}

	// The degraded confidence must trip the review threshold downstream
	q := p.AnalyzeQuality(c)
	if !q.NeedsReview {
		t.Error("degraded classification should need review")
	}
}

func TestClassifyClampsConfidence(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0.0},
		{1.7, 1.0},
		{math.NaN(), 0.0},
		{math.Inf(1), 1.0},
		{math.Inf(-1), 0.0},
	}

	for _, tt := range tests {
		llm := &mockLLM{
			classifyFn: func(context.Context, *Email, *EvidenceBag) (*RawClassification, error) {
				return &RawClassification{Intent: "kyc_update", Confidence: tt.in}, nil
			},
		}
		c := newTestPolicy(llm).Classify(context.Background(), testEmail("e1"), nil)
		if c.Confidence != tt.want {
			t.Errorf("clamp(%v): confidence = %v, want %v", tt.in, c.Confidence, tt.want)
		}
	}
}

func TestClassifyClosedIntentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		label := rapid.String().Draw(t, "label")
		conf := rapid.Float64().Draw(t, "conf")

		llm := &mockLLM{
			classifyFn: func(context.Context, *Email, *EvidenceBag) (*RawClassification, error) {
				return &RawClassification{Intent: label, Confidence: conf}, nil
			},
		}
		c := newTestPolicy(llm).Classify(context.Background(), testEmail("e1"), nil)

		if !ValidIntent(c.Intent) {
			t.Fatalf("intent %q escaped the closed set for label %q", c.Intent, label)
		}
		if c.Confidence < 0.0 || c.Confidence > 1.0 || math.IsNaN(c.Confidence) {
			t.Fatalf("confidence %v out of range for input %v", c.Confidence, conf)
		}

		normalized := Intent(strings.ToLower(strings.TrimSpace(label)))
		if !ValidIntent(normalized) && c.Intent != IntentGeneralInquiry {
			t.Fatalf("off-taxonomy label %q coerced to %q, want general_inquiry", label, c.Intent)
		}
		if !ValidIntent(normalized) && c.Confidence < 0.5 {
			t.Fatalf("coerced confidence %v below floor", c.Confidence)
		}
	})
}

func TestAnalyzeQuality(t *testing.T) {
	p := newTestPolicy(&mockLLM{})

	tests := []struct {
		name      string
		c         Classification
		wantScore float64
		wantLevel string
		review    bool
	}{
		{
			name: "full marks",
			c: Classification{
				Intent:      IntentLoanRequest,
				Confidence:  1.0,
				SubCategory: "home_loan",
				Reasoning:   "explicit loan request",
			},
			wantScore: 100.0,
			wantLevel: "high",
		},
		{
			name: "no reasoning or sub-category",
			c: Classification{
				Intent:     IntentGeneralInquiry,
				Confidence: 0.9,
			},
			wantScore: 74.0,
			wantLevel: "high",
		},
		{
			name: "degraded classification",
			c: Classification{
				Intent:     IntentGeneralInquiry,
				Confidence: 0.5,
				Reasoning:  "classification failed",
			},
			wantScore: 60.0,
			wantLevel: "low",
			review:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := p.AnalyzeQuality(&tt.c)
			if q.QualityScore != tt.wantScore {
				t.Errorf("quality score = %v, want %v", q.QualityScore, tt.wantScore)
			}
			if q.ConfidenceLevel != tt.wantLevel {
				t.Errorf("confidence level = %q, want %q", q.ConfidenceLevel, tt.wantLevel)
			}
			if q.NeedsReview != tt.review {
				t.Errorf("needs_review = %v, want %v", q.NeedsReview, tt.review)
			}
		})
	}
}

func TestConfidenceLevelBoundaries(t *testing.T) {
	tests := []struct {
		conf float64
		want string
	}{
		{0.8, "high"},
		{0.79, "medium"},
		{0.6, "medium"},
		{0.59, "low"},
		{0.0, "low"},
		{1.0, "high"},
	}
	for _, tt := range tests {
		if got := ConfidenceLevel(tt.conf); got != tt.want {
			t.Errorf("ConfidenceLevel(%v) = %q, want %q", tt.conf, got, tt.want)
		}
	}
}
