package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ResponseComposer drafts the reply for an email. It asks the external
// generator first and falls back to the intent's fixed template when the
// generator fails or returns nothing; the generic deferral template only
// triggers when no template exists for the intent.
type ResponseComposer struct {
	llm     LLMClient
	catalog *TemplateCatalog
	logger  *zap.Logger
	timeout time.Duration
	titler  cases.Caser
}

// NewResponseComposer creates a new response composer
func NewResponseComposer(llm LLMClient, catalog *TemplateCatalog, logger *zap.Logger, timeout time.Duration) *ResponseComposer {
	return &ResponseComposer{
		llm:     llm,
		catalog: catalog,
		logger:  logger,
		timeout: timeout,
		titler:  cases.Title(language.English),
	}
}

// Compose produces the scored reply for an email. It never returns an error:
// generation failure degrades to templated text.
func (rc *ResponseComposer) Compose(ctx context.Context, email *Email, intent Intent, evidence *EvidenceBag) *Response {
	personalization := rc.personalization(email, evidence)

	text, templateUsed := rc.replyText(ctx, email, intent, evidence, personalization)

	if disclaimer := rc.catalog.Disclaimer(intent); disclaimer != "" {
		text += disclaimer
	}

	wordCount := len(strings.Fields(text))
	score, level := ScoreResponse(text, wordCount)

	resp := &Response{
		EmailID:         email.EmailID,
		ResponseText:    text,
		TemplateUsed:    templateUsed,
		Personalization: personalization,
		WordCount:       wordCount,
		QualityScore:    score,
		QualityLevel:    level,
	}

	rc.logger.Info("Response composed",
		zap.String("email_id", email.EmailID),
		zap.String("template_used", templateUsed),
		zap.Int("word_count", wordCount),
		zap.Int("quality_score", score))

	return resp
}

func (rc *ResponseComposer) replyText(ctx context.Context, email *Email, intent Intent, evidence *EvidenceBag, personalization map[string]string) (string, string) {
	callCtx := ctx
	if rc.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}

	text, err := rc.llm.GenerateReply(callCtx, email, intent, evidence)
	if err != nil {
		rc.logger.Warn("Reply generation failed, using template",
			zap.Error(err),
			zap.String("email_id", email.EmailID),
			zap.String("intent", string(intent)))
	} else if strings.TrimSpace(text) != "" {
		return text, ""
	}

	return rc.RenderTemplate(intent, personalization)
}

// RenderTemplate renders the fixed template for an intent, or the generic
// deferral reply when the catalog has no template for it. It returns the
// rendered text and the template identifier used.
func (rc *ResponseComposer) RenderTemplate(intent Intent, personalization map[string]string) (string, string) {
	customerName := personalization["customer_name"]
	if customerName == "" {
		customerName = "Valued Customer"
	}

	tpl, ok := rc.catalog.Template(intent)
	if !ok {
		rc.logger.Warn("No template for intent, using generic reply", zap.String("intent", string(intent)))
		return rc.genericReply(customerName), "generic"
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Dear %s,", customerName), "")
	lines = append(lines, tpl.Greeting, "")
	lines = append(lines, tpl.Acknowledgment, "")
	lines = append(lines, "Next Steps:")
	for i, step := range tpl.NextSteps {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, step))
	}
	lines = append(lines, "", tpl.Closing, "")
	lines = append(lines, rc.catalog.Signature()...)

	return strings.Join(lines, "\n"), string(intent)
}

func (rc *ResponseComposer) genericReply(customerName string) string {
	lines := []string{
		fmt.Sprintf("Dear %s,", customerName),
		"",
		"Thank you for contacting us. We have received your message and our team will review it carefully.",
		"",
		"One of our representatives will respond to you within 1-2 business days.",
		"",
		"If you need immediate assistance, please call our customer service hotline at 1-800-BANK-HELP.",
		"",
		"Thank you for your patience.",
		"",
	}
	lines = append(lines, rc.catalog.Signature()...)
	return strings.Join(lines, "\n")
}

// personalization assembles the evidence-derived key/value bag used to
// personalize a reply
func (rc *ResponseComposer) personalization(email *Email, evidence *EvidenceBag) map[string]string {
	p := map[string]string{
		"customer_name": rc.customerName(email),
		"sender_email":  email.Sender,
		"subject":       email.Subject,
	}

	if evidence != nil {
		if len(evidence.AccountNumbers) > 0 {
			p["account_number"] = evidence.AccountNumbers[0]
		}
		if len(evidence.Amounts) > 0 {
			p["amount"] = fmt.Sprintf("$%.2f", evidence.Amounts[0])
		}
		if len(evidence.Names) > 0 {
			p["mentioned_names"] = strings.Join(evidence.Names, ", ")
		}
	}

	return p
}

// customerName prefers the display name and falls back to a readable form of
// the address local part
func (rc *ResponseComposer) customerName(email *Email) string {
	if name := strings.TrimSpace(email.SenderName); name != "" {
		return name
	}

	local, _, found := strings.Cut(email.Sender, "@")
	if !found || local == "" {
		return ""
	}
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	return rc.titler.String(strings.TrimSpace(local))
}

var (
	closingPhrases  = []string{"regards", "sincerely", "thank you"}
	processPhrases  = []string{"will", "next", "steps", "process"}
	informalMarkers = []string{"hey", "gonna", "wanna"}
)

// ScoreResponse applies the fixed response quality rubric: greeting in the
// first 100 characters (+30), closing phrase in the last 200 (+20), word count
// within [50,300] (+20), forward-looking process language (+15), absence of
// informal markers (+15). The score is bucketed high(>=80)/medium(>=60)/low.
func ScoreResponse(text string, wordCount int) (int, string) {
	lower := strings.ToLower(text)

	// The rubric windows count characters, not bytes
	runes := []rune(lower)
	head := lower
	if len(runes) > 100 {
		head = string(runes[:100])
	}
	tail := lower
	if len(runes) > 200 {
		tail = string(runes[len(runes)-200:])
	}

	score := 0
	if strings.Contains(head, "dear") {
		score += 30
	}
	if containsAny(tail, closingPhrases) {
		score += 20
	}
	if wordCount >= 50 && wordCount <= 300 {
		score += 20
	}
	if containsAny(lower, processPhrases) {
		score += 15
	}
	if !containsAny(lower, informalMarkers) {
		score += 15
	}

	switch {
	case score >= 80:
		return score, "high"
	case score >= 60:
		return score, "medium"
	default:
		return score, "low"
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
