package minnecessary

import (
	"context"
	"testing"

	"github.com/proofmesh/govcore/pkg/policy"
)

func testConfig() Config {
	return Config{
		SensitiveActions:      []string{"export", "delete"},
		SensitiveResources:    []string{"financial_record"},
		RequiredJustification: true,
	}
}

func TestNonSensitiveAllowsOutright(t *testing.T) {
	p := New("minnecessary", testConfig())
	d, _ := p.Evaluate(context.Background(), policy.Context{Action: "read", Resource: policy.Resource{Type: "note"}})
	if !d.Allow {
		t.Fatalf("expected allow for non-sensitive request")
	}
}

func TestShortJustificationDenied(t *testing.T) {
	p := New("minnecessary", testConfig())
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Action:        "export",
		Justification: "nope",
	})
	if d.Allow {
		t.Fatalf("expected deny for short justification")
	}
	if len(d.Obligations) != 1 || d.Obligations[0].Type != "provide_justification" {
		t.Fatalf("expected provide_justification obligation, got %+v", d.Obligations)
	}
}

func TestAdminBypassesWithAuditLog(t *testing.T) {
	p := New("minnecessary", testConfig())
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Action:        "export",
		Justification: "sufficiently long justification",
		User:          policy.User{ID: "root", Roles: []string{"admin"}},
	})
	if !d.Allow {
		t.Fatalf("expected admin allow, got deny: %s", d.Reason)
	}
	if len(d.Obligations) != 1 || d.Obligations[0].Type != "audit_log" {
		t.Fatalf("expected audit_log obligation, got %+v", d.Obligations)
	}
}

func TestSensitiveActionOutsideBusinessHoursDenied(t *testing.T) {
	p := New("minnecessary", testConfig())
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Action:        "export",
		Justification: "sufficiently long justification",
		User:          policy.User{ID: "u1", Roles: []string{"user"}},
		Hour:          23,
	})
	if d.Allow {
		t.Fatalf("expected deny outside business hours")
	}
	if d.Obligations[0].Type != "schedule_operation" {
		t.Fatalf("expected schedule_operation obligation, got %+v", d.Obligations)
	}
}

func TestDefaultDenyRequestsApproval(t *testing.T) {
	p := New("minnecessary", testConfig())
	d, _ := p.Evaluate(context.Background(), policy.Context{
		Action:        "export",
		Justification: "sufficiently long justification",
		User:          policy.User{ID: "u1", Roles: []string{"user"}},
		Hour:          14,
	})
	if d.Allow {
		t.Fatalf("expected default deny")
	}
	if d.Obligations[0].Type != "request_approval" {
		t.Fatalf("expected request_approval obligation, got %+v", d.Obligations)
	}
}
