// Package policy implements the pluggable policy engine: a registry of
// named policies evaluated in order, each producing an allow/deny
// Decision with obligations and structured proof.
package policy

import "context"

// Obligation is an advisory action the caller of an allow decision MUST
// perform (audit_log, encrypt_export, ...). Ignoring it is a contract
// violation, but it never turns an allow into a deny.
type Obligation struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Decision is the result of evaluating one or more policies.
type Decision struct {
	Allow       bool                   `json:"allow"`
	Obligations []Obligation           `json:"obligations"`
	Reason      string                 `json:"reason"`
	Proof       map[string]interface{} `json:"proof,omitempty"`
}

// AllowDecision builds an allow Decision.
func AllowDecision(reason string, obligations []Obligation, proof map[string]interface{}) Decision {
	if obligations == nil {
		obligations = []Obligation{}
	}
	return Decision{Allow: true, Obligations: obligations, Reason: reason, Proof: proof}
}

// DenyDecision builds a deny Decision.
func DenyDecision(reason string, obligations []Obligation, proof map[string]interface{}) Decision {
	if obligations == nil {
		obligations = []Obligation{}
	}
	return Decision{Allow: false, Obligations: obligations, Reason: reason, Proof: proof}
}

// Context is the free-form evaluation context passed to every policy. It
// carries a small typed vocabulary for the fields policies actually read
// (User, Action, Resource, Purpose, Patient, Recipient, Request) plus an
// Extra map for everything else, per the typed-sum-type design note.
type Context struct {
	User     User                   `json:"user"`
	Action   string                 `json:"action"`
	Resource Resource               `json:"resource"`
	Purpose  string                 `json:"purpose,omitempty"`
	Patient  *Patient               `json:"patient,omitempty"`
	Recipient *Recipient            `json:"recipient,omitempty"`
	Request  Request                `json:"request"`
	IsEmergencyAccess bool          `json:"is_emergency_access"`
	Justification     string        `json:"justification,omitempty"`
	Hour              int           `json:"hour"`
	Extra             map[string]interface{} `json:"extra,omitempty"`
}

// User describes the acting principal.
type User struct {
	ID          string   `json:"id"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions,omitempty"`
}

// Resource describes the target of the action.
type Resource struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"type"`
	Owner       string                 `json:"owner,omitempty"`
	Visibility  string                 `json:"visibility,omitempty"`
	Permissions map[string][]string    `json:"permissions,omitempty"`
	IsPHI       bool                   `json:"is_phi"`
	IsClinical  bool                   `json:"is_clinical"`
	DataElements []string              `json:"data_elements,omitempty"`
}

// Patient describes HIPAA patient-specific context.
type Patient struct {
	ID                string             `json:"id"`
	IsDeceased        bool               `json:"is_deceased"`
	DateOfDeath       *string            `json:"date_of_death,omitempty"`
	HasRestriction    bool               `json:"has_restriction"`
	RestrictionAction string             `json:"restriction_action,omitempty"`
	RestrictionRecipientID string        `json:"restriction_recipient_id,omitempty"`
}

// Recipient describes a disclosure recipient.
type Recipient struct {
	ID string `json:"id"`
}

// Request carries request-level authorization flags.
type Request struct {
	AuthorizationPresent bool `json:"authorization_present"`
}

// Policy is a named, versioned, stateless (across calls) rule evaluator.
type Policy interface {
	Name() string
	Version() string
	Evaluate(ctx context.Context, pctx Context) (Decision, error)
}
