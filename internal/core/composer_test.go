package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func testCatalog() *TemplateCatalog {
	templates := map[Intent]ReplyTemplate{}
	for _, intent := range Intents() {
		templates[intent] = ReplyTemplate{
			Greeting:       "Thank you for contacting us.",
			Acknowledgment: "We have received your " + strings.ReplaceAll(string(intent), "_", " ") + ".",
			NextSteps:      []string{"Our team will review your request", "We will contact you shortly"},
			Closing:        "Thank you for banking with us.",
		}
	}
	disclaimers := map[Intent]string{
		IntentLoanRequest: "\n\n---\nDisclaimer: Loan approval is subject to credit verification.",
	}
	return NewTemplateCatalog(templates, disclaimers, []string{"Best regards,", "Customer Service Team"})
}

func newTestComposer(llm LLMClient) *ResponseComposer {
	return NewResponseComposer(llm, testCatalog(), zap.NewNop(), 0)
}

func TestComposeFallsBackToTemplateForEveryIntent(t *testing.T) {
	llm := &mockLLM{
		generateFn: func(context.Context, *Email, Intent, *EvidenceBag) (string, error) {
			return "", errors.New("generator down")
		},
	}
	rc := newTestComposer(llm)

	for _, intent := range Intents() {
		resp := rc.Compose(context.Background(), testEmail("e1"), intent, nil)

		if resp.TemplateUsed != string(intent) {
			t.Errorf("%s: template used = %q, want %q", intent, resp.TemplateUsed, intent)
		}
		if !strings.HasPrefix(resp.ResponseText, "Dear Jane Doe,") {
			t.Errorf("%s: reply does not open with greeting: %q", intent, resp.ResponseText[:40])
		}
		if !strings.Contains(resp.ResponseText, "Customer Service Team") {
			t.Errorf("%s: reply missing signature", intent)
		}
		if resp.WordCount == 0 {
			t.Errorf("%s: zero word count", intent)
		}
	}
}

func TestComposeUsesGeneratedReply(t *testing.T) {
	generated := "Dear Jane,\n\nWe will process your request in the next few steps.\n\nBest regards,\nCustomer Service Team"
	llm := &mockLLM{
		generateFn: func(context.Context, *Email, Intent, *EvidenceBag) (string, error) {
			return generated, nil
		},
	}
	resp := newTestComposer(llm).Compose(context.Background(), testEmail("e1"), IntentGeneralInquiry, nil)

	if resp.TemplateUsed != "" {
		t.Errorf("template used = %q, want empty for generated reply", resp.TemplateUsed)
	}
	if !strings.HasPrefix(resp.ResponseText, generated) {
		t.Error("generated text was not used as the reply body")
	}
}

func TestComposeAppendsDisclaimer(t *testing.T) {
	llm := &mockLLM{
		generateFn: func(context.Context, *Email, Intent, *EvidenceBag) (string, error) {
			return "", errors.New("generator down")
		},
	}
	rc := newTestComposer(llm)

	loan := rc.Compose(context.Background(), testEmail("e1"), IntentLoanRequest, nil)
	if !strings.Contains(loan.ResponseText, "credit verification") {
		t.Error("loan reply missing disclaimer")
	}

	inquiry := rc.Compose(context.Background(), testEmail("e1"), IntentGeneralInquiry, nil)
	if strings.Contains(inquiry.ResponseText, "credit verification") {
		t.Error("inquiry reply carries an unrelated disclaimer")
	}
}

func TestRenderTemplateGenericFallback(t *testing.T) {
	empty := NewTemplateCatalog(nil, nil, []string{"Your Bank"})
	rc := NewResponseComposer(&mockLLM{}, empty, zap.NewNop(), 0)

	text, used := rc.RenderTemplate(IntentKYCUpdate, map[string]string{})
	if used != "generic" {
		t.Errorf("template used = %q, want generic", used)
	}
	if !strings.Contains(text, "Dear Valued Customer,") {
		t.Error("generic reply missing fallback salutation")
	}
	if !strings.Contains(text, "1-800-BANK-HELP") {
		t.Error("generic reply missing deferral contact")
	}
}

func TestComposePersonalization(t *testing.T) {
	llm := &mockLLM{
		generateFn: func(context.Context, *Email, Intent, *EvidenceBag) (string, error) {
			return "", errors.New("generator down")
		},
	}
	email := testEmail("e1")
	email.SenderName = ""
	email.Sender = "john.q_public@example.com"

	evidence := &EvidenceBag{
		EmailID:        "e1",
		AccountNumbers: []string{"ACC-1234-5678", "ACC-9999-0000"},
		Amounts:        []float64{2500.5},
		Dates:          []string{},
		Names:          []string{"John Public", "Mary Smith"},
	}

	resp := newTestComposer(llm).Compose(context.Background(), email, IntentAccountIssue, evidence)

	p := resp.Personalization
	if p["customer_name"] != "John Q Public" {
		t.Errorf("customer_name = %q, want title-cased local part", p["customer_name"])
	}
	if p["account_number"] != "ACC-1234-5678" {
		t.Errorf("account_number = %q, want first account", p["account_number"])
	}
	if p["amount"] != "$2500.50" {
		t.Errorf("amount = %q", p["amount"])
	}
	if p["mentioned_names"] != "John Public, Mary Smith" {
		t.Errorf("mentioned_names = %q", p["mentioned_names"])
	}
	if !strings.HasPrefix(resp.ResponseText, "Dear John Q Public,") {
		t.Error("reply not personalized with derived customer name")
	}
}

func TestScoreResponseRubric(t *testing.T) {
	professional := "Dear Valued Customer, thank you for reaching out. We will review the next steps in our process. Kind regards, the team."

	tests := []struct {
		name      string
		text      string
		wordCount int
		score     int
		level     string
	}{
		{"all criteria met", professional, 150, 100, "high"},
		{"short reply loses length points", professional, 40, 80, "high"},
		{"long reply loses length points", professional, 350, 80, "high"},
		{"informal reply penalized", "hey there, gonna sort your account out next week, regards", 60, 55, "low"},
		{"empty reply", "", 0, 15, "low"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, level := ScoreResponse(tt.text, tt.wordCount)
			if score != tt.score {
				t.Errorf("score = %d, want %d", score, tt.score)
			}
			if level != tt.level {
				t.Errorf("level = %q, want %q", level, tt.level)
			}
		})
	}
}

// Identical text at word counts inside and outside [50,300] differs by
// exactly the length component of the rubric.
func TestScoreResponseLengthComponent(t *testing.T) {
	text := "Dear customer, we will process this. Regards."
	inRange, _ := ScoreResponse(text, 150)
	outOfRange, _ := ScoreResponse(text, 40)
	if inRange-outOfRange != 20 {
		t.Errorf("length component = %d, want 20", inRange-outOfRange)
	}
}

func TestScoreResponseWindowsCountCharacters(t *testing.T) {
	// 60 two-byte runes put the greeting past byte 100 but still inside the
	// first 100 characters
	text := strings.Repeat("é", 60) + " Dear customer, we will process this. Regards."
	score, _ := ScoreResponse(text, 150)
	want, _ := ScoreResponse("Dear customer, we will process this. Regards.", 150)
	if score != want {
		t.Errorf("score = %d, want %d (greeting within the 100-character window)", score, want)
	}
}
