package evidence

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

func TestNormalizeExtractsPatterns(t *testing.T) {
	n := NewNormalizer(zap.NewNop(), []string{"Account Number"})

	docs := []*core.RawDocument{
		{
			Ref: "loan_application.pdf",
			Text: "LOAN APPLICATION\n" +
				"Applicant: John Smith\n" +
				"Account Number: ACC-1234-5678\n" +
				"Requested amount: $250,000.00\n" +
				"Submitted on January 15, 2024\n" +
				"Review due 2024-02-01\n",
		},
	}

	bag := n.Normalize("e1", docs)

	want := &core.EvidenceBag{
		EmailID:        "e1",
		AccountNumbers: []string{"ACC-1234-5678"},
		Amounts:        []float64{250000},
		Dates:          []string{"January 15, 2024", "2024-02-01"},
		Names:          []string{"John Smith"},
	}
	if diff := cmp.Diff(want, bag); diff != "" {
		t.Errorf("evidence bag mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeMergesFieldGuesses(t *testing.T) {
	n := NewNormalizer(zap.NewNop(), nil)

	docs := []*core.RawDocument{
		{
			Ref:            "statement.pdf",
			Text:           "Balance due: $120.50",
			AccountNumbers: []string{"BUS-ACC-2020-3030"},
			Amounts:        []string{"$120.50", "975"},
			Names:          []string{"Alice Wong"},
		},
	}

	bag := n.Normalize("e2", docs)

	if len(bag.AccountNumbers) != 1 || bag.AccountNumbers[0] != "BUS-ACC-2020-3030" {
		t.Errorf("accounts = %v", bag.AccountNumbers)
	}
	// $120.50 appears in both the text scan and the field guesses; it must
	// dedup to one entry
	if diff := cmp.Diff([]float64{120.5, 975}, bag.Amounts); diff != "" {
		t.Errorf("amounts mismatch (-want +got):\n%s", diff)
	}
	if len(bag.Names) != 1 || bag.Names[0] != "Alice Wong" {
		t.Errorf("names = %v", bag.Names)
	}
}

func TestNormalizeAppliesNameExclusions(t *testing.T) {
	n := NewNormalizer(zap.NewNop(), []string{"Account Number", "Loan Amount"})

	docs := []*core.RawDocument{
		{Text: "Account Number\nLoan Amount\nMaria Garcia\n"},
	}

	bag := n.Normalize("e3", docs)

	if diff := cmp.Diff([]string{"Maria Garcia"}, bag.Names); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDropsUnparseableAmounts(t *testing.T) {
	n := NewNormalizer(zap.NewNop(), nil)

	docs := []*core.RawDocument{
		{Amounts: []string{"$abc", "", "$1,234.56", "not-a-number"}},
	}

	bag := n.Normalize("e4", docs)

	if diff := cmp.Diff([]float64{1234.56}, bag.Amounts); diff != "" {
		t.Errorf("amounts mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer(zap.NewNop(), nil)

	for name, docs := range map[string][]*core.RawDocument{
		"nil docs":   nil,
		"nil entry":  {nil},
		"empty text": {{Text: ""}},
	} {
		bag := n.Normalize("e5", docs)
		if bag == nil {
			t.Fatalf("%s: bag is nil", name)
		}
		if !bag.IsEmpty() {
			t.Errorf("%s: bag not empty: %+v", name, bag)
		}
		if bag.AccountNumbers == nil || bag.Amounts == nil || bag.Dates == nil || bag.Names == nil {
			t.Errorf("%s: collections must be non-nil", name)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		token string
		want  float64
		ok    bool
	}{
		{"$1,234.56", 1234.56, true},
		{"$250,000", 250000, true},
		{"975", 975, true},
		{"$0", 0, true},
		{"$abc", 0, false},
		{"", 0, false},
		{"$", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseAmount(tt.token)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseAmount(%q) = (%v, %v), want (%v, %v)", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}
