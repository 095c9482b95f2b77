// Package hipaa implements the actor-aware HIPAA policy: a fixed
// evaluation order of regulatory gates, the first of which to trigger
// decides the outcome, followed by a role-specific minimum-necessary
// branch for whichever gate does not short-circuit first.
package hipaa

import (
	"context"
	"time"

	"github.com/proofmesh/govcore/pkg/policy"
)

const fiftyYears = 50 * 365 * 24 * time.Hour

// payeePermittedElements enumerates the data elements a payee may
// access absent a treatment purpose; provider and admin roles hold
// full_record and bypass this set entirely.
var payeePermittedElements = map[string]bool{
	"demographics":     true,
	"billing_codes":    true,
	"dates_of_service": true,
	"insurance_info":   true,
}

// Policy evaluates HIPAA-governed access to protected health information.
type Policy struct {
	name    string
	version string
}

// New builds a HIPAA policy instance. It takes no configuration: the
// regulatory rule set is fixed, not YAML-declared.
func New(name string) *Policy {
	return &Policy{name: name, version: "1.0.0"}
}

func (p *Policy) Name() string    { return p.name }
func (p *Policy) Version() string { return p.version }

// Evaluate implements policy.Policy.
func (p *Policy) Evaluate(ctx context.Context, pctx policy.Context) (policy.Decision, error) {
	citation := func(c string) map[string]interface{} {
		return map[string]interface{}{"policy": p.name, "citation": c}
	}

	// Rule 1: policy inapplicable to non-PHI resources.
	if !pctx.Resource.IsPHI {
		return policy.AllowDecision("resource is not PHI, HIPAA policy inapplicable", nil, citation("45 CFR 160.103")), nil
	}

	// Rule 2: emergency access short-circuits before every other gate,
	// including minimum-necessary.
	if pctx.IsEmergencyAccess {
		return policy.AllowDecision(
			"emergency access granted",
			[]policy.Obligation{{Type: "audit_log"}, {Type: "follow_up"}},
			citation("45 CFR 164.512(j)"),
		), nil
	}

	// Rule 3: patient-directed restriction on disclosure.
	if pctx.Patient != nil && pctx.Patient.HasRestriction {
		recipientID := ""
		if pctx.Recipient != nil {
			recipientID = pctx.Recipient.ID
		}
		if pctx.Patient.RestrictionAction == pctx.Action && pctx.Patient.RestrictionRecipientID == recipientID {
			return policy.DenyDecision("disclosure matches patient-requested restriction", nil, citation("45 CFR 164.522(a)")), nil
		}
	}

	// Rule 4: decedent PHI ages out of protection after 50 years.
	if pctx.Patient != nil && pctx.Patient.IsDeceased && pctx.Patient.DateOfDeath != nil {
		if dod, err := time.Parse(time.RFC3339, *pctx.Patient.DateOfDeath); err == nil {
			if time.Now().UTC().After(dod.Add(fiftyYears)) {
				return policy.AllowDecision("more than 50 years since date of death, no longer PHI", nil, citation("45 CFR 160.103(2)(iv)")), nil
			}
		}
	}

	// Rule 5: authorization gates for especially sensitive purposes.
	if pctx.Resource.Type == "psychotherapy_notes" && pctx.Purpose != "treatment" && !pctx.Request.AuthorizationPresent {
		return policy.DenyDecision("psychotherapy notes require authorization outside treatment", nil, citation("45 CFR 164.508(a)(2)")), nil
	}
	if (pctx.Purpose == "marketing" || pctx.Purpose == "sale_of_phi") && !pctx.Request.AuthorizationPresent {
		return policy.DenyDecision("marketing or sale of PHI requires authorization", nil, citation("45 CFR 164.508(a)(3)-(4)")), nil
	}

	// Rule 6: actor-specific branch.
	roles := pctx.User.Roles
	switch {
	case hasRole(roles, "provider"):
		return p.evaluateProvider(pctx, citation), nil
	case hasRole(roles, "payee"):
		return p.evaluatePayee(pctx, citation), nil
	case hasRole(roles, "patient"):
		return p.evaluatePatientActor(pctx, citation), nil
	default:
		return policy.DenyDecision("no recognized HIPAA role", nil, citation("45 CFR 164.502(b)")), nil
	}
}

func (p *Policy) evaluateProvider(pctx policy.Context, citation func(string) map[string]interface{}) policy.Decision {
	if !minimumNecessarySatisfied(pctx, pctx.User.Roles) {
		return policy.DenyDecision("requested data elements exceed minimum necessary", nil, citation("45 CFR 164.502(b)"))
	}
	obligations := []policy.Obligation{{Type: "audit_log"}}
	if pctx.Action == "disclose" {
		obligations = append(obligations, policy.Obligation{Type: "transmission_security"})
	}
	return policy.AllowDecision("provider access within minimum necessary", obligations, citation("45 CFR 164.502(b)"))
}

func (p *Policy) evaluatePayee(pctx policy.Context, citation func(string) map[string]interface{}) policy.Decision {
	if pctx.Resource.IsClinical && (pctx.Action == "write" || pctx.Action == "delete") {
		return policy.DenyDecision("payee may not modify clinical data", nil, citation("45 CFR 164.312(c)(1)"))
	}
	if !minimumNecessarySatisfied(pctx, pctx.User.Roles) {
		return policy.DenyDecision("requested data elements exceed minimum necessary", nil, citation("45 CFR 164.502(b)"))
	}
	obligations := []policy.Obligation{{Type: "audit_log"}}
	if pctx.Action == "export" {
		obligations = append(obligations, policy.Obligation{Type: "encryption"})
	}
	return policy.AllowDecision("payee access within minimum necessary", obligations, citation("45 CFR 164.502(b)"))
}

func (p *Policy) evaluatePatientActor(pctx policy.Context, citation func(string) map[string]interface{}) policy.Decision {
	if pctx.Patient == nil || pctx.User.ID != pctx.Patient.ID {
		return policy.DenyDecision("patient actor may only access their own record", nil, citation("45 CFR 164.524"))
	}
	obligations := []policy.Obligation{{Type: "audit_log"}}
	if pctx.Action == "export" {
		obligations = append(obligations, policy.Obligation{Type: "encryption"})
	}
	return policy.AllowDecision("patient accessing own record", obligations, citation("45 CFR 164.524"))
}

// minimumNecessarySatisfied implements the shared minimum-necessary
// check: treatment purpose bypasses it entirely; provider and admin
// roles hold full_record (any element permitted); otherwise the
// requested data elements must be a subset of the role's permitted set.
func minimumNecessarySatisfied(pctx policy.Context, roles []string) bool {
	if pctx.Purpose == "treatment" {
		return true
	}
	if hasRole(roles, "provider") || hasRole(roles, "admin") {
		return true
	}
	permitted := payeePermittedElements
	for _, el := range pctx.Resource.DataElements {
		if !permitted[el] {
			return false
		}
	}
	return true
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
