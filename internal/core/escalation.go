package core

import (
	"fmt"
)

// EscalationEngine decides whether an email needs human or specialist
// handling. The decision is a pure function of (intent, confidence, priority),
// evaluated as an ordered rule list where the first matching rule wins.
//
// Confidence gating is deliberately first: an uncertain classification is
// untrustworthy regardless of what it claims the intent to be.
type EscalationEngine struct{}

// NewEscalationEngine creates a new escalation engine
func NewEscalationEngine() *EscalationEngine {
	return &EscalationEngine{}
}

// ShouldEscalate evaluates the escalation rule cascade for a classification
// and the email's priority
func (e *EscalationEngine) ShouldEscalate(c *Classification, priority Priority) Escalation {
	return e.Decide(c.Intent, c.Confidence, priority)
}

// Decide evaluates the rule cascade. First matching rule wins; rules never
// combine.
func (e *EscalationEngine) Decide(intent Intent, confidence float64, priority Priority) Escalation {
	if confidence < 0.6 {
		return Escalation{true, fmt.Sprintf("Low confidence classification (%.2f)", confidence)}
	}
	if priority == PriorityCritical {
		return Escalation{true, "Critical priority email"}
	}
	if intent == IntentFraudComplaint {
		return Escalation{true, "Fraud complaint requires immediate review"}
	}
	if intent == IntentLoanRequest {
		return Escalation{true, "Loan application requires specialist review"}
	}
	if intent == IntentAccountIssue && priority == PriorityHigh {
		return Escalation{true, "High priority account issue"}
	}
	return Escalation{false, "Standard processing"}
}
