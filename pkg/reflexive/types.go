// Package reflexive implements the reflexive core: a monitor pipeline
// that watches actions as they happen, assesses risk, and reacts with
// an action (halt, escalate, monitor, or allow), logging every decision
// to the provenance ledger.
package reflexive

import (
	"time"

	"github.com/google/uuid"
)

// DecisionType is the outcome of evaluating an action.
type DecisionType string

const (
	DecisionHalt     DecisionType = "halt"
	DecisionEscalate DecisionType = "escalate"
	DecisionMonitor  DecisionType = "monitor"
	DecisionAllow    DecisionType = "allow"
)

// RiskLevel is the assessed severity of an action.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ActionContext describes the action under evaluation.
type ActionContext struct {
	ActionID   string                 `json:"action_id"`
	ActorID    string                 `json:"actor_id"`
	ActionType string                 `json:"action_type"`
	ResourceID string                 `json:"resource_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	SessionID  string                 `json:"session_id,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
}

// FindingType distinguishes the two kinds of monitor output the engine
// acts on; anything else a monitor returns is ignored.
type FindingType string

const (
	FindingViolation FindingType = "violation"
	FindingAnomaly   FindingType = "anomaly"
)

// Severity is a finding's reported severity.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Finding is one monitor's reported violation or anomaly.
type Finding struct {
	Type     FindingType            `json:"type"`
	Severity Severity               `json:"severity"`
	Reason   string                 `json:"reason"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// Evidence bundles the findings a decision was based on.
type Evidence struct {
	Violations []Finding `json:"violations"`
	Anomalies  []Finding `json:"anomalies"`
}

// TotalIssues is the combined violation+anomaly count.
func (e Evidence) TotalIssues() int {
	return len(e.Violations) + len(e.Anomalies)
}

// Decision is the reflexive engine's verdict on one action.
type Decision struct {
	DecisionID    string        `json:"decision_id"`
	DecisionType  DecisionType  `json:"decision_type"`
	RiskLevel     RiskLevel     `json:"risk_level"`
	ActionContext ActionContext `json:"action_context"`
	Reason        string        `json:"reason"`
	Evidence      Evidence      `json:"evidence"`
	Timestamp     time.Time     `json:"timestamp"`
	EscalatedTo   string        `json:"escalated_to,omitempty"`
	ProofHash     string        `json:"proof_hash"`
}

func newDecisionID() string {
	return uuid.New().String()
}

// Monitor inspects an action and optionally reports a finding. A nil
// return means the monitor found nothing worth reporting.
type Monitor interface {
	Name() string
	Inspect(ctx ActionContext) *Finding
}
