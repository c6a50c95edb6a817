// Package templates provides the reply-template catalog: builtin defaults for
// every intent plus an optional YAML override file.
package templates

import (
	"fmt"
	"os"

	"github.com/mikey/llm-email-triage/internal/core"
	"gopkg.in/yaml.v3"
)

type templateFile struct {
	Templates map[string]struct {
		Greeting       string   `yaml:"greeting"`
		Acknowledgment string   `yaml:"acknowledgment"`
		NextSteps      []string `yaml:"next_steps"`
		Closing        string   `yaml:"closing"`
	} `yaml:"templates"`
	Disclaimers map[string]string `yaml:"disclaimers"`
	Signature   []string          `yaml:"signature"`
}

// Load returns the template catalog. When path is empty the builtin defaults
// are used; otherwise the YAML file at path replaces or extends them.
func Load(path string) (*core.TemplateCatalog, error) {
	templates := defaultTemplates()
	disclaimers := defaultDisclaimers()
	signature := defaultSignature()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read template file: %w", err)
		}
		var file templateFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse template file: %w", err)
		}
		for name, tpl := range file.Templates {
			intent := core.Intent(name)
			if !core.ValidIntent(intent) {
				return nil, fmt.Errorf("template file names unknown intent %q", name)
			}
			templates[intent] = core.ReplyTemplate{
				Greeting:       tpl.Greeting,
				Acknowledgment: tpl.Acknowledgment,
				NextSteps:      tpl.NextSteps,
				Closing:        tpl.Closing,
			}
		}
		for name, text := range file.Disclaimers {
			intent := core.Intent(name)
			if !core.ValidIntent(intent) {
				return nil, fmt.Errorf("disclaimer names unknown intent %q", name)
			}
			disclaimers[intent] = text
		}
		if len(file.Signature) > 0 {
			signature = file.Signature
		}
	}

	return core.NewTemplateCatalog(templates, disclaimers, signature), nil
}

// Default returns the builtin catalog without consulting any file
func Default() *core.TemplateCatalog {
	return core.NewTemplateCatalog(defaultTemplates(), defaultDisclaimers(), defaultSignature())
}

func defaultSignature() []string {
	return []string{"Best regards,", "Customer Service Team", "Your Bank"}
}

func defaultDisclaimers() map[core.Intent]string {
	return map[core.Intent]string{
		core.IntentLoanRequest:    "\n\n---\nDisclaimer: Loan approval is subject to credit verification and underwriting standards. Terms and conditions apply.",
		core.IntentFraudComplaint: "\n\n---\nSecurity Reminder: Never share your password, PIN, or OTP with anyone, including bank employees.",
		core.IntentAccountIssue:   "\n\n---\nNote: This is an automated response. For urgent matters, please call our 24/7 support line.",
	}
}

func defaultTemplates() map[core.Intent]core.ReplyTemplate {
	return map[core.Intent]core.ReplyTemplate{
		core.IntentLoanRequest: {
			Greeting:       "Thank you for your interest in our loan services.",
			Acknowledgment: "We have received your loan application and appreciate you choosing our bank.",
			NextSteps: []string{
				"Our loan department will review your application",
				"A loan officer will contact you within 2-3 business days",
				"Please ensure all required documents are submitted",
				"You can track your application status through online banking",
			},
			Closing: "We look forward to helping you achieve your financial goals.",
		},
		core.IntentKYCUpdate: {
			Greeting:       "Thank you for contacting us regarding your account information.",
			Acknowledgment: "We have received your request to update your KYC details.",
			NextSteps: []string{
				"We will verify the documents you have provided",
				"Updates will be processed within 1-2 business days",
				"You will receive a confirmation email once completed",
				"Please ensure all documents are clear and valid",
			},
			Closing: "Thank you for keeping your information up to date.",
		},
		core.IntentAccountIssue: {
			Greeting:       "Thank you for bringing this matter to our attention.",
			Acknowledgment: "We understand your concern regarding your account.",
			NextSteps: []string{
				"Our technical team is investigating the issue",
				"We will resolve this as quickly as possible",
				"You will be notified once the issue is resolved",
				"If urgent, please call our support hotline",
			},
			Closing: "We apologize for any inconvenience and appreciate your patience.",
		},
		core.IntentFraudComplaint: {
			Greeting:       "Thank you for reporting this security concern.",
			Acknowledgment: "We take fraud and security issues very seriously and have immediately flagged your account.",
			NextSteps: []string{
				"Your card/account has been temporarily secured",
				"Our fraud department is investigating immediately",
				"You will be contacted by a fraud specialist within 24 hours",
				"Please do not respond to any suspicious communications",
				"Monitor your account for any additional unauthorized activity",
			},
			Closing: "Your security is our top priority. We are committed to resolving this matter swiftly.",
		},
		core.IntentGeneralInquiry: {
			Greeting:       "Thank you for your inquiry.",
			Acknowledgment: "We are happy to assist you with information about our services.",
			NextSteps: []string{
				"Our customer service team will provide detailed information",
				"You can also visit our website for more details",
				"Feel free to visit any branch for in-person assistance",
				"We are here to help with any questions you may have",
			},
			Closing: "Thank you for choosing our bank.",
		},
	}
}
