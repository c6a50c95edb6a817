package core

import (
	"strings"
	"time"
)

// Priority represents the operational priority of an email
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ValidPriority reports whether p is one of the defined priority levels
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Email represents an inbound customer email. Emails are read-only once
// loaded; derived records are keyed by EmailID rather than mutated in place.
type Email struct {
	EmailID          string
	Sender           string
	SenderName       string
	Subject          string
	Body             string
	Date             time.Time
	Priority         Priority
	RequiresResponse bool
	Attachments      []string
}

// EmailMetadata carries simple derived measurements of an email
type EmailMetadata struct {
	BodyLength      int
	WordCount       int
	AttachmentCount int
	HasAttachments  bool
}

// Metadata computes the derived measurements for the email
func (e *Email) Metadata() EmailMetadata {
	return EmailMetadata{
		BodyLength:      len(e.Body),
		WordCount:       len(strings.Fields(e.Body)),
		AttachmentCount: len(e.Attachments),
		HasAttachments:  len(e.Attachments) > 0,
	}
}

// EvidenceBag holds normalized structured fields extracted from an email's
// attachments. All collections are deduplicated and never nil.
type EvidenceBag struct {
	EmailID        string
	AccountNumbers []string
	Amounts        []float64
	Dates          []string
	Names          []string
}

// NewEvidenceBag returns an empty evidence bag for the given email
func NewEvidenceBag(emailID string) *EvidenceBag {
	return &EvidenceBag{
		EmailID:        emailID,
		AccountNumbers: []string{},
		Amounts:        []float64{},
		Dates:          []string{},
		Names:          []string{},
	}
}

// IsEmpty reports whether the bag carries no evidence at all
func (b *EvidenceBag) IsEmpty() bool {
	return len(b.AccountNumbers) == 0 && len(b.Amounts) == 0 &&
		len(b.Dates) == 0 && len(b.Names) == 0
}

// Classification is the policy-validated result of intent classification.
// After policy processing Intent is always a member of the closed set.
type Classification struct {
	EmailID      string
	Intent       Intent
	Confidence   float64
	SubCategory  string
	Reasoning    string
	ModelUsed    string
	ClassifiedAt time.Time
}

// ClassificationQuality is a deterministic quality rubric for a classification
type ClassificationQuality struct {
	Confidence      float64
	ConfidenceLevel string
	NeedsReview     bool
	ValidIntent     bool
	HasReasoning    bool
	HasSubCategory  bool
	QualityScore    float64
}

// ActionType is the operational routing decision for an email
type ActionType string

const (
	ActionReply    ActionType = "reply"
	ActionEscalate ActionType = "escalate"
	ActionLog      ActionType = "log"
	ActionForward  ActionType = "forward"
)

// Action is the recommended follow-up for an email
type Action struct {
	EmailID    string
	ActionType ActionType
	Priority   Priority
	AssignedTo string
	Reason     string
}

// Escalation is the boolean escalation decision with its justification
type Escalation struct {
	Escalate bool
	Reason   string
}

// Response is the drafted reply for an email together with its quality scoring
type Response struct {
	EmailID         string
	ResponseText    string
	TemplateUsed    string
	Personalization map[string]string
	WordCount       int
	QualityScore    int
	QualityLevel    string
}

// EmailResult bundles every derived record for one successfully processed email
type EmailResult struct {
	Email          *Email
	Evidence       *EvidenceBag
	Classification *Classification
	Quality        *ClassificationQuality
	Escalation     *Escalation
	Action         *Action
	Response       *Response
}

// BatchItem is one per-email outcome of a batch run: either a result or a
// failure record. Failed items are never silently dropped.
type BatchItem struct {
	EmailID string
	Result  *EmailResult
	Err     string
}

// Failed reports whether this item is a failure record
func (it *BatchItem) Failed() bool {
	return it.Result == nil
}

// BatchState tracks the lifecycle of a batch run
type BatchState string

const (
	BatchPending  BatchState = "pending"
	BatchRunning  BatchState = "running"
	BatchComplete BatchState = "complete"
)

// BatchSummary aggregates the outcomes of one batch run
type BatchSummary struct {
	Total          int
	Succeeded      int
	Failed         int
	ByIntent       map[Intent]int
	ByAction       map[ActionType]int
	AvgConfidence  float64
	HighConfidence int
	LowConfidence  int
}

// BatchResult is the ordered outcome sequence of one batch run plus its
// aggregate summary. It is scoped to the run and never persisted by the core.
type BatchResult struct {
	Items   []BatchItem
	Summary BatchSummary
}
