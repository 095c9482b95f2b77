package policy

import (
	"context"
	"testing"
)

func init() {
	RegisterFactory("fixed_allow", func(name string, parameters map[string]interface{}) (Policy, error) {
		return &fixedPolicy{name: name, decision: AllowDecision("ok", nil, nil)}, nil
	})
}

func TestApplyBundleBuildsAndOrdersPolicies(t *testing.T) {
	raw := []byte(`
policies:
  - name: p1
    type: fixed_allow
  - name: p2
    type: fixed_allow
evaluation_order: [p2, p1]
`)
	bundle, err := LoadBundle(raw)
	if err != nil {
		t.Fatalf("load bundle: %v", err)
	}

	e := New(nil, nil)
	if err := e.ApplyBundle(bundle); err != nil {
		t.Fatalf("apply bundle: %v", err)
	}

	if got := e.registry.Names(); len(got) != 2 {
		t.Fatalf("expected 2 policies registered, got %v", got)
	}
	if len(e.evaluationOrder) != 2 || e.evaluationOrder[0] != "p2" {
		t.Fatalf("expected evaluation order [p2 p1], got %v", e.evaluationOrder)
	}

	d := e.Evaluate(context.Background(), Context{}, nil)
	if !d.Allow {
		t.Fatalf("expected allow")
	}
}

func TestApplyBundleUnknownTypeErrors(t *testing.T) {
	bundle := &Bundle{Policies: []BundleEntry{{Name: "x", Type: "does_not_exist"}}}
	e := New(nil, nil)
	if err := e.ApplyBundle(bundle); err == nil {
		t.Fatalf("expected error for unknown policy type")
	}
}
