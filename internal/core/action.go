package core

// Queue names an action can be routed to
const (
	QueueHumanReview    = "human_review_team"
	QueueFraud          = "fraud_department"
	QueueEscalation     = "escalation_team"
	QueueLoans          = "loan_department"
	QueueKYC            = "kyc_team"
	QueueSupportTier2   = "customer_support_tier2"
	QueueSupport        = "customer_support"
)

// ActionResolver produces the operational routing decision for an email. Like
// the escalation engine it is a pure ordered rule cascade over
// (intent, confidence, priority); the two mirror each other but are maintained
// independently because action assignment carries routing detail the
// escalation decision does not need. The cross-consistency guarantee (an
// escalating email never resolves to a reply action) is guarded by tests.
type ActionResolver struct{}

// NewActionResolver creates a new action resolver
func NewActionResolver() *ActionResolver {
	return &ActionResolver{}
}

// Resolve determines the recommended action for an email given its validated
// classification
func (r *ActionResolver) Resolve(email *Email, c *Classification) *Action {
	priority := email.Priority
	if !ValidPriority(priority) {
		priority = PriorityMedium
	}

	action := &Action{
		EmailID:  email.EmailID,
		Priority: priority,
	}

	intent := c.Intent
	switch {
	case c.Confidence < 0.6:
		action.ActionType = ActionEscalate
		action.Reason = "Low confidence in classification, requires human review"
		action.AssignedTo = QueueHumanReview

	case intent == IntentFraudComplaint || priority == PriorityCritical:
		action.ActionType = ActionEscalate
		action.Reason = "Urgent issue requiring immediate attention"
		if intent == IntentFraudComplaint {
			action.AssignedTo = QueueFraud
		} else {
			action.AssignedTo = QueueEscalation
		}

	case intent == IntentLoanRequest:
		action.ActionType = ActionEscalate
		action.Reason = "Loan application requires underwriting review"
		action.AssignedTo = QueueLoans

	case intent == IntentKYCUpdate:
		action.ActionType = ActionReply
		action.Reason = "Standard KYC update, can be processed automatically"
		action.AssignedTo = QueueKYC

	case intent == IntentAccountIssue:
		if priority == PriorityHigh {
			action.ActionType = ActionEscalate
			action.Reason = "High priority account issue"
			action.AssignedTo = QueueSupportTier2
		} else {
			action.ActionType = ActionReply
			action.Reason = "Standard account issue"
			action.AssignedTo = QueueSupport
		}

	default: // general_inquiry
		action.ActionType = ActionReply
		action.Reason = "General inquiry, can be handled with standard response"
		action.AssignedTo = QueueSupport
	}

	return action
}
