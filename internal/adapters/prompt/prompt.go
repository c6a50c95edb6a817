// Package prompt builds the structured prompts sent to the generative
// backends and parses their line-oriented classification replies. All three
// provider adapters share this wire format.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mikey/llm-email-triage/internal/core"
)

// SystemContext is the standing instruction sent with every request
const SystemContext = `You are an AI assistant for a banking institution. You help process customer emails,
classify their intent, and generate appropriate professional responses.

Key banking services include:
- Loan applications (home, auto, business)
- Account management (checking, savings, credit cards)
- KYC updates (address changes, employment updates, documentation)
- Fraud and security issues
- General inquiries and customer support

Always maintain a professional, helpful, and empathetic tone. Prioritize security
and compliance in all responses.`

const classifyFormat = `Respond in this exact format:
INTENT: <category_name>
CONFIDENCE: <0.0-1.0>
SUB_CATEGORY: <specific type if applicable>
REASONING: <brief explanation>`

// BuildClassify renders the intent classification prompt for one email. The
// body is expected to be pre-truncated by the caller.
func BuildClassify(email *core.Email, body string, evidence *core.EvidenceBag) string {
	var b strings.Builder

	b.WriteString("Classify the intent of the following banking customer email into ONE of these categories:\n\n")
	b.WriteString("Categories:\n")
	b.WriteString("1. loan_request - Customer requesting a loan (home, auto, business, personal)\n")
	b.WriteString("2. kyc_update - Customer updating KYC information (address, employment, documents)\n")
	b.WriteString("3. account_issue - Problems with account access, transactions, or statements\n")
	b.WriteString("4. fraud_complaint - Reporting fraud, unauthorized transactions, or security concerns\n")
	b.WriteString("5. general_inquiry - General questions about products, services, or information requests\n\n")

	b.WriteString("Email Details:\n")
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "From: %s <%s>\n", email.SenderName, email.Sender)
	fmt.Fprintf(&b, "Body:\n%s\n", body)

	if evidence != nil && !evidence.IsEmpty() {
		b.WriteString("\nExtracted Data from Attachments:\n")
		writeEvidence(&b, evidence)
	}

	b.WriteString("\n")
	b.WriteString(classifyFormat)
	return b.String()
}

// BuildReply renders the reply generation prompt for one email and its
// classified intent
func BuildReply(email *core.Email, body string, intent core.Intent, evidence *core.EvidenceBag) string {
	var b strings.Builder

	b.WriteString("Generate a professional banking response to the following customer email.\n\n")
	b.WriteString("Customer Email:\n")
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "From: %s\n", email.SenderName)
	fmt.Fprintf(&b, "Body:\n%s\n\n", body)
	fmt.Fprintf(&b, "Classified Intent: %s\n", intent)

	if evidence != nil && !evidence.IsEmpty() {
		b.WriteString("\nExtracted Information:\n")
		writeEvidence(&b, evidence)
	}

	topic := strings.ReplaceAll(string(intent), "_", " ")
	b.WriteString("\nRequirements:\n")
	b.WriteString("1. Address the customer by name if available\n")
	fmt.Fprintf(&b, "2. Acknowledge their %s\n", topic)
	b.WriteString("3. Provide relevant information or next steps\n")
	b.WriteString("4. Be professional, empathetic, and helpful\n")
	b.WriteString("5. Include appropriate disclaimers if needed\n")
	b.WriteString("6. Sign off appropriately\n\n")
	b.WriteString("Generate ONLY the email response body (no subject line).\n")

	return b.String()
}

func writeEvidence(b *strings.Builder, evidence *core.EvidenceBag) {
	if len(evidence.AccountNumbers) > 0 {
		fmt.Fprintf(b, "Account numbers: %s\n", strings.Join(evidence.AccountNumbers, ", "))
	}
	if len(evidence.Amounts) > 0 {
		amounts := make([]string, len(evidence.Amounts))
		for i, amt := range evidence.Amounts {
			amounts[i] = fmt.Sprintf("$%.2f", amt)
		}
		fmt.Fprintf(b, "Amounts: %s\n", strings.Join(amounts, ", "))
	}
	if len(evidence.Dates) > 0 {
		fmt.Fprintf(b, "Dates: %s\n", strings.Join(evidence.Dates, ", "))
	}
	if len(evidence.Names) > 0 {
		fmt.Fprintf(b, "Names: %s\n", strings.Join(evidence.Names, ", "))
	}
}

// ParseClassification parses the line-oriented classification reply. A reply
// with no INTENT line at all is malformed; a bad confidence token degrades to
// 0.0 rather than failing the whole parse.
func ParseClassification(response string) (*core.RawClassification, error) {
	raw := &core.RawClassification{}
	sawIntent := false

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "INTENT:"):
			raw.Intent = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "INTENT:")))
			sawIntent = true
		case strings.HasPrefix(line, "CONFIDENCE:"):
			token := strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:"))
			if v, err := strconv.ParseFloat(token, 64); err == nil {
				raw.Confidence = v
			}
		case strings.HasPrefix(line, "SUB_CATEGORY:"):
			sub := strings.TrimSpace(strings.TrimPrefix(line, "SUB_CATEGORY:"))
			if !strings.EqualFold(sub, "none") {
				raw.SubCategory = sub
			}
		case strings.HasPrefix(line, "REASONING:"):
			raw.Reasoning = strings.TrimSpace(strings.TrimPrefix(line, "REASONING:"))
		}
	}

	if !sawIntent {
		return nil, fmt.Errorf("%w: no INTENT line in response", core.ErrLLMMalformedOutput)
	}
	return raw, nil
}
