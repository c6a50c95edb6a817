package core

import (
	"testing"
)

func resolveFor(intent Intent, confidence float64, priority Priority) *Action {
	email := testEmail("e1")
	email.Priority = priority
	return NewActionResolver().Resolve(email, &Classification{
		EmailID:    email.EmailID,
		Intent:     intent,
		Confidence: confidence,
	})
}

func TestActionRouting(t *testing.T) {
	tests := []struct {
		name       string
		intent     Intent
		confidence float64
		priority   Priority
		actionType ActionType
		assignedTo string
	}{
		{"low confidence", IntentGeneralInquiry, 0.4, PriorityMedium, ActionEscalate, QueueHumanReview},
		{"fraud complaint", IntentFraudComplaint, 0.9, PriorityMedium, ActionEscalate, QueueFraud},
		{"critical non-fraud", IntentGeneralInquiry, 0.9, PriorityCritical, ActionEscalate, QueueEscalation},
		{"critical fraud goes to fraud queue", IntentFraudComplaint, 0.9, PriorityCritical, ActionEscalate, QueueFraud},
		{"loan request", IntentLoanRequest, 0.85, PriorityMedium, ActionEscalate, QueueLoans},
		{"kyc update", IntentKYCUpdate, 0.9, PriorityMedium, ActionReply, QueueKYC},
		{"high priority account issue", IntentAccountIssue, 0.8, PriorityHigh, ActionEscalate, QueueSupportTier2},
		{"standard account issue", IntentAccountIssue, 0.8, PriorityMedium, ActionReply, QueueSupport},
		{"general inquiry", IntentGeneralInquiry, 0.9, PriorityLow, ActionReply, QueueSupport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := resolveFor(tt.intent, tt.confidence, tt.priority)
			if action.ActionType != tt.actionType {
				t.Errorf("action type = %q, want %q", action.ActionType, tt.actionType)
			}
			if action.AssignedTo != tt.assignedTo {
				t.Errorf("assigned to = %q, want %q", action.AssignedTo, tt.assignedTo)
			}
			if action.Reason == "" {
				t.Error("action reason must not be empty")
			}
		})
	}
}

func TestActionDefaultsInvalidPriority(t *testing.T) {
	action := resolveFor(IntentGeneralInquiry, 0.9, Priority("bogus"))
	if action.Priority != PriorityMedium {
		t.Errorf("priority = %q, want %q", action.Priority, PriorityMedium)
	}
}

// An email the escalation engine flags must never resolve to a plain reply.
// The two cascades are maintained independently, so this pins their agreement
// over the whole decision space.
func TestEscalationActionConsistency(t *testing.T) {
	engine := NewEscalationEngine()
	resolver := NewActionResolver()

	priorities := []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
	confidences := []float64{0.0, 0.3, 0.59, 0.6, 0.75, 0.8, 1.0}

	for _, intent := range Intents() {
		for _, priority := range priorities {
			for _, confidence := range confidences {
				email := testEmail("grid")
				email.Priority = priority
				c := &Classification{EmailID: "grid", Intent: intent, Confidence: confidence}

				esc := engine.ShouldEscalate(c, priority)
				action := resolver.Resolve(email, c)

				if esc.Escalate && action.ActionType == ActionReply {
					t.Errorf("escalating email resolved to reply: intent=%s priority=%s confidence=%v (%s)",
						intent, priority, confidence, esc.Reason)
				}
			}
		}
	}
}
