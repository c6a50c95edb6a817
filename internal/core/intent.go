package core

// Intent is the closed-set classification of an email's business purpose
type Intent string

const (
	IntentLoanRequest    Intent = "loan_request"
	IntentKYCUpdate      Intent = "kyc_update"
	IntentAccountIssue   Intent = "account_issue"
	IntentFraudComplaint Intent = "fraud_complaint"
	IntentGeneralInquiry Intent = "general_inquiry"

	// intentUnknown is the internal sentinel for a failed classifier call.
	// It never escapes the classification policy boundary.
	intentUnknown Intent = "unknown"
)

// Intents lists the closed intent set in canonical order
func Intents() []Intent {
	return []Intent{
		IntentLoanRequest,
		IntentKYCUpdate,
		IntentAccountIssue,
		IntentFraudComplaint,
		IntentGeneralInquiry,
	}
}

// ValidIntent reports whether in is a member of the closed intent set
func ValidIntent(in Intent) bool {
	switch in {
	case IntentLoanRequest, IntentKYCUpdate, IntentAccountIssue,
		IntentFraudComplaint, IntentGeneralInquiry:
		return true
	}
	return false
}

// IntentCategory is static metadata describing one intent category
type IntentCategory struct {
	Description    string
	Keywords       []string
	TypicalActions []ActionType
	PriorityBoost  bool
}

// IntentCatalog maps each closed intent to its category metadata. The catalog
// is immutable after construction and injected into components that need it.
type IntentCatalog struct {
	categories map[Intent]IntentCategory
}

// NewIntentCatalog builds a catalog from the given category table
func NewIntentCatalog(categories map[Intent]IntentCategory) *IntentCatalog {
	copied := make(map[Intent]IntentCategory, len(categories))
	for in, cat := range categories {
		copied[in] = cat
	}
	return &IntentCatalog{categories: copied}
}

// DefaultIntentCatalog returns the standard banking intent taxonomy
func DefaultIntentCatalog() *IntentCatalog {
	return NewIntentCatalog(map[Intent]IntentCategory{
		IntentLoanRequest: {
			Description:    "Customer requesting a loan (home, auto, business, personal)",
			Keywords:       []string{"loan", "mortgage", "financing", "borrow", "credit"},
			TypicalActions: []ActionType{ActionEscalate},
			PriorityBoost:  true,
		},
		IntentKYCUpdate: {
			Description:    "Customer updating KYC/personal information (address, employment, documents)",
			Keywords:       []string{"update", "kyc", "address", "employment", "change", "verify"},
			TypicalActions: []ActionType{ActionReply},
		},
		IntentAccountIssue: {
			Description:    "Problems with account access, transactions, statements, or technical issues",
			Keywords:       []string{"problem", "issue", "error", "unable", "cannot", "access", "login"},
			TypicalActions: []ActionType{ActionReply, ActionEscalate},
			PriorityBoost:  true,
		},
		IntentFraudComplaint: {
			Description:    "Reporting fraud, unauthorized transactions, security concerns, or suspicious activity",
			Keywords:       []string{"fraud", "unauthorized", "suspicious", "theft", "hack", "scam", "phishing"},
			TypicalActions: []ActionType{ActionEscalate},
			PriorityBoost:  true,
		},
		IntentGeneralInquiry: {
			Description:    "General questions about products, services, rates, or information requests",
			Keywords:       []string{"question", "inquiry", "information", "rate", "fee", "service", "product"},
			TypicalActions: []ActionType{ActionReply},
		},
	})
}

// Category returns the metadata for an intent
func (c *IntentCatalog) Category(in Intent) (IntentCategory, bool) {
	cat, ok := c.categories[in]
	return cat, ok
}

// Description returns the description for an intent, or a placeholder for an
// unknown category
func (c *IntentCatalog) Description(in Intent) string {
	if cat, ok := c.categories[in]; ok {
		return cat.Description
	}
	return "Unknown intent category"
}
