package policy_test

import (
	"context"
	"testing"

	"github.com/proofmesh/govcore/pkg/policy"
	"github.com/proofmesh/govcore/pkg/policy/hipaa"
	"github.com/proofmesh/govcore/pkg/policy/minnecessary"
	"github.com/proofmesh/govcore/pkg/policy/rbac"
)

// TestRBACAdminDeletingOwnedResourceAttachesAuditLog exercises an admin
// deleting a resource they own: RBAC grants the permission via the
// owner/admin bypass and must attach its own audit_log obligation on
// that allow path, not rely on a downstream policy to supply it.
func TestRBACAdminDeletingOwnedResourceAttachesAuditLog(t *testing.T) {
	reg := policy.NewRegistry()
	reg.Register(rbac.New("rbac", rbac.Config{
		Roles: map[string]rbac.RoleDef{
			"admin": {Permissions: []string{"*"}},
		},
	}))
	reg.Register(minnecessary.New("minimum_necessary", minnecessary.Config{
		SensitiveActions: []string{"delete"},
	}))

	e := policy.New(reg, nil)
	e.SetEvaluationOrder([]string{"rbac", "minimum_necessary"})

	pctx := policy.Context{
		User:   policy.User{ID: "admin", Roles: []string{"admin"}},
		Action: "delete",
		Resource: policy.Resource{
			ID: "u1", Type: "user_data", Owner: "admin", Visibility: "private",
		},
	}

	rbacDecision, ok := e.EvaluateSingle(context.Background(), "rbac", pctx)
	if !ok || !rbacDecision.Allow {
		t.Fatalf("expected RBAC allow, got %+v", rbacDecision)
	}
	if permCheck, _ := rbacDecision.Proof["permission_check"].(bool); !permCheck {
		t.Fatalf("expected permission_check=true in proof, got %+v", rbacDecision.Proof)
	}
	found := false
	for _, o := range rbacDecision.Obligations {
		if o.Type == "audit_log" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected RBAC's own allow decision to carry an audit_log obligation, got %+v", rbacDecision.Obligations)
	}

	mnDecision, ok := e.EvaluateSingle(context.Background(), "minimum_necessary", pctx)
	if !ok || !mnDecision.Allow {
		t.Fatalf("expected minimum-necessary allow for admin, got %+v", mnDecision)
	}
}

// TestHIPAAPayeeWritesClinicalDenied checks that a payee role is denied
// write access to clinical PHI even when the purpose is Payment, with the
// integrity rule cited in the proof.
func TestHIPAAPayeeWritesClinicalDenied(t *testing.T) {
	p := hipaa.New("hipaa")
	d, err := p.Evaluate(context.Background(), policy.Context{
		User:   policy.User{ID: "payer1", Roles: []string{"payee"}},
		Action: "write",
		Resource: policy.Resource{
			IsPHI: true, IsClinical: true, DataElements: []string{"diagnosis_code"},
		},
		Purpose: "Payment",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allow {
		t.Fatalf("expected deny, payee writing clinical data violates integrity")
	}
	if d.Proof["citation"] != "45 CFR 164.312(c)(1)" {
		t.Fatalf("expected citation to 164.312(c)(1), got %+v", d.Proof)
	}
}
