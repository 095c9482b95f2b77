package hipaa

import (
	"context"
	"testing"
	"time"

	"github.com/proofmesh/govcore/pkg/policy"
)

func TestNonPHIAllowsOutright(t *testing.T) {
	p := New("hipaa")
	d, _ := p.Evaluate(context.Background(), policy.Context{Resource: policy.Resource{IsPHI: false}})
	if !d.Allow {
		t.Fatalf("expected allow, resource is not PHI")
	}
}

func TestEmergencyAccessShortCircuitsBeforeMinimumNecessary(t *testing.T) {
	p := New("hipaa")
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Resource:          policy.Resource{IsPHI: true, DataElements: []string{"clinical_notes"}},
		IsEmergencyAccess: true,
		User:              policy.User{ID: "u1", Roles: []string{"payee"}},
	})
	if !d.Allow {
		t.Fatalf("expected emergency access to allow regardless of minimum-necessary: %s", d.Reason)
	}
	found := map[string]bool{}
	for _, o := range d.Obligations {
		found[o.Type] = true
	}
	if !found["audit_log"] || !found["follow_up"] {
		t.Fatalf("expected audit_log and follow_up obligations, got %+v", d.Obligations)
	}
}

func TestPatientRestrictionDeniesMatchingDisclosure(t *testing.T) {
	p := New("hipaa")
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Resource: policy.Resource{IsPHI: true},
		Action:   "disclose",
		User:     policy.User{ID: "u1", Roles: []string{"provider"}},
		Patient: &policy.Patient{
			ID: "p1", HasRestriction: true,
			RestrictionAction: "disclose", RestrictionRecipientID: "r1",
		},
		Recipient: &policy.Recipient{ID: "r1"},
	})
	if d.Allow {
		t.Fatalf("expected deny, disclosure matches patient restriction")
	}
}

func TestDecedentAgedOutOfPHI(t *testing.T) {
	p := New("hipaa")
	old := time.Now().UTC().Add(-51 * 365 * 24 * time.Hour).Format(time.RFC3339)
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Resource: policy.Resource{IsPHI: true},
		Patient:  &policy.Patient{ID: "p1", IsDeceased: true, DateOfDeath: &old},
	})
	if !d.Allow {
		t.Fatalf("expected allow, decedent PHI aged out after 50 years")
	}
}

func TestPsychotherapyNotesRequireAuthorization(t *testing.T) {
	p := New("hipaa")
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Resource: policy.Resource{IsPHI: true, Type: "psychotherapy_notes"},
		Purpose:  "billing",
		User:     policy.User{ID: "u1", Roles: []string{"provider"}},
	})
	if d.Allow {
		t.Fatalf("expected deny, psychotherapy notes outside treatment without authorization")
	}
}

func TestProviderAllowedWithMinimumNecessaryAndDisclosureObligation(t *testing.T) {
	p := New("hipaa")
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Resource: policy.Resource{IsPHI: true, DataElements: []string{"clinical_notes"}},
		Action:   "disclose",
		Purpose:  "research",
		User:     policy.User{ID: "u1", Roles: []string{"provider"}},
	})
	if !d.Allow {
		t.Fatalf("expected allow, provider has full_record: %s", d.Reason)
	}
	found := map[string]bool{}
	for _, o := range d.Obligations {
		found[o.Type] = true
	}
	if !found["audit_log"] || !found["transmission_security"] {
		t.Fatalf("expected audit_log and transmission_security obligations, got %+v", d.Obligations)
	}
}

func TestPayeeCannotModifyClinicalData(t *testing.T) {
	p := New("hipaa")
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Resource: policy.Resource{IsPHI: true, IsClinical: true},
		Action:   "write",
		User:     policy.User{ID: "u1", Roles: []string{"payee"}},
	})
	if d.Allow {
		t.Fatalf("expected deny, payee may not modify clinical data")
	}
}

func TestPayeeMinimumNecessaryRestrictsDataElements(t *testing.T) {
	p := New("hipaa")
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Resource: policy.Resource{IsPHI: true, DataElements: []string{"clinical_notes"}},
		Action:   "read",
		Purpose:  "billing",
		User:     policy.User{ID: "u1", Roles: []string{"payee"}},
	})
	if d.Allow {
		t.Fatalf("expected deny, clinical_notes exceeds payee minimum-necessary")
	}
}

func TestPayeeWritesClinicalDataAllowedWhenNotClinical(t *testing.T) {
	p := New("hipaa")
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Resource: policy.Resource{IsPHI: true, IsClinical: false, DataElements: []string{"billing_codes"}},
		Action:   "write",
		Purpose:  "billing",
		User:     policy.User{ID: "u1", Roles: []string{"payee"}},
	})
	if !d.Allow {
		t.Fatalf("expected allow, non-clinical billing write within permitted elements: %s", d.Reason)
	}
}

func TestPatientActorMustMatchOwnRecord(t *testing.T) {
	p := New("hipaa")
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Resource: policy.Resource{IsPHI: true},
		Action:   "read",
		User:     policy.User{ID: "u1", Roles: []string{"patient"}},
		Patient:  &policy.Patient{ID: "u2"},
	})
	if d.Allow {
		t.Fatalf("expected deny, patient actor does not match record owner")
	}
}

func TestUnrecognizedRoleDenied(t *testing.T) {
	p := New("hipaa")
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Resource: policy.Resource{IsPHI: true},
		User:     policy.User{ID: "u1", Roles: []string{"guest"}},
	})
	if d.Allow {
		t.Fatalf("expected deny for unrecognized HIPAA role")
	}
}
