package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/mikey/llm-email-triage/internal/core"
)

func TestParseClassification(t *testing.T) {
	response := `INTENT: Fraud_Complaint
CONFIDENCE: 0.92
SUB_CATEGORY: unauthorized_transaction
REASONING: The customer reports charges they did not make.`

	raw, err := ParseClassification(response)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if raw.Intent != "fraud_complaint" {
		t.Errorf("intent = %q", raw.Intent)
	}
	if raw.Confidence != 0.92 {
		t.Errorf("confidence = %v", raw.Confidence)
	}
	if raw.SubCategory != "unauthorized_transaction" {
		t.Errorf("sub_category = %q", raw.SubCategory)
	}
	if !strings.Contains(raw.Reasoning, "did not make") {
		t.Errorf("reasoning = %q", raw.Reasoning)
	}
}

func TestParseClassificationTolerance(t *testing.T) {
	t.Run("surrounding chatter", func(t *testing.T) {
		raw, err := ParseClassification("Sure! Here is my analysis:\n\nINTENT: loan_request\nCONFIDENCE: 0.8\n\nHope that helps.")
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if raw.Intent != "loan_request" || raw.Confidence != 0.8 {
			t.Errorf("parsed %+v", raw)
		}
	})

	t.Run("bad confidence degrades to zero", func(t *testing.T) {
		raw, err := ParseClassification("INTENT: kyc_update\nCONFIDENCE: very sure")
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if raw.Confidence != 0 {
			t.Errorf("confidence = %v, want 0", raw.Confidence)
		}
	})

	t.Run("sub category none means absent", func(t *testing.T) {
		raw, err := ParseClassification("INTENT: general_inquiry\nCONFIDENCE: 0.7\nSUB_CATEGORY: None")
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if raw.SubCategory != "" {
			t.Errorf("sub_category = %q, want empty", raw.SubCategory)
		}
	})
}

func TestParseClassificationMissingIntent(t *testing.T) {
	_, err := ParseClassification("I think this is probably about a loan.")
	if !errors.Is(err, core.ErrLLMMalformedOutput) {
		t.Errorf("err = %v, want ErrLLMMalformedOutput", err)
	}
}

func TestBuildClassifyIncludesEvidence(t *testing.T) {
	email := &core.Email{
		EmailID:    "e1",
		Sender:     "jane@example.com",
		SenderName: "Jane Doe",
		Subject:    "Loan application",
	}
	evidence := &core.EvidenceBag{
		EmailID:        "e1",
		AccountNumbers: []string{"ACC-1234-5678"},
		Amounts:        []float64{250000},
		Dates:          []string{},
		Names:          []string{},
	}

	p := BuildClassify(email, "I attached my application.", evidence)

	for _, want := range []string{
		"loan_request", "kyc_update", "account_issue", "fraud_complaint", "general_inquiry",
		"Subject: Loan application",
		"ACC-1234-5678",
		"$250000.00",
		"INTENT:",
		"CONFIDENCE:",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildClassifyOmitsEmptyEvidence(t *testing.T) {
	email := &core.Email{EmailID: "e1", Sender: "jane@example.com", Subject: "Hi"}
	p := BuildClassify(email, "body", core.NewEvidenceBag("e1"))
	if strings.Contains(p, "Extracted Data") {
		t.Error("empty evidence should not appear in the prompt")
	}
}
