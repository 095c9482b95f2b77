package rbac

import (
	"context"
	"testing"

	"github.com/proofmesh/govcore/pkg/policy"
)

func testConfig() Config {
	return Config{
		Roles: map[string]RoleDef{
			"admin":  {Permissions: []string{"*"}},
			"editor": {Permissions: []string{"content_edit"}},
			"viewer": {Permissions: []string{"content_view"}},
		},
		Permissions: map[string][]string{
			"content_edit": {"update", "patch"},
			"content_view": {"read", "list"},
		},
		RoleHierarchy: map[string][]string{
			"editor": {"viewer"},
		},
	}
}

func TestEmptyRoleSetDenies(t *testing.T) {
	p := New("rbac", testConfig())
	d, err := p.Evaluate(context.Background(), policy.Context{
		User:   policy.User{ID: "u1"},
		Action: "read",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Allow {
		t.Fatalf("expected deny for empty role set")
	}
	if d.Reason != "no assigned roles" {
		t.Fatalf("unexpected reason: %s", d.Reason)
	}
}

func TestEditorInheritsViewerAndOwnsResource(t *testing.T) {
	p := New("rbac", testConfig())
	d, err := p.Evaluate(context.Background(), policy.Context{
		User:     policy.User{ID: "u1", Roles: []string{"editor"}},
		Action:   "read",
		Resource: policy.Resource{ID: "doc1", Owner: "u1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Allow {
		t.Fatalf("expected allow via inherited viewer permission, got deny: %s", d.Reason)
	}
}

func TestActionNotGrantedDenies(t *testing.T) {
	p := New("rbac", testConfig())
	d, _ := p.Evaluate(context.Background(), policy.Context{
		User:     policy.User{ID: "u1", Roles: []string{"viewer"}},
		Action:   "delete",
		Resource: policy.Resource{ID: "doc1", Owner: "u1"},
	})
	if d.Allow {
		t.Fatalf("expected deny, viewer has no delete permission")
	}
	if len(d.Obligations) != 1 || d.Obligations[0].Type != "request_permission" {
		t.Fatalf("expected a request_permission obligation, got %+v", d.Obligations)
	}
}

func TestPermittedActionButResourceScopeDenies(t *testing.T) {
	p := New("rbac", testConfig())
	d, _ := p.Evaluate(context.Background(), policy.Context{
		User:     policy.User{ID: "u2", Roles: []string{"viewer"}},
		Action:   "read",
		Resource: policy.Resource{ID: "doc1", Owner: "someoneelse", Visibility: "private"},
	})
	if d.Allow {
		t.Fatalf("expected deny, user does not own resource and it is private")
	}
	if len(d.Obligations) != 1 || d.Obligations[0].Type != "request_access" {
		t.Fatalf("expected a request_access obligation, got %+v", d.Obligations)
	}
}

func TestAdminBypassesResourceScope(t *testing.T) {
	p := New("rbac", testConfig())
	d, _ := p.Evaluate(context.Background(), policy.Context{
		User:     policy.User{ID: "root", Roles: []string{"admin"}},
		Action:   "delete",
		Resource: policy.Resource{ID: "doc1", Owner: "someoneelse", Visibility: "private"},
	})
	if !d.Allow {
		t.Fatalf("expected admin to bypass resource scope, got deny: %s", d.Reason)
	}
	if len(d.Obligations) != 1 || d.Obligations[0].Type != "audit_log" {
		t.Fatalf("expected an audit_log obligation on the admin-bypass allow, got %+v", d.Obligations)
	}
}

func TestExplicitResourcePermissionGrantsAccess(t *testing.T) {
	p := New("rbac", testConfig())
	d, _ := p.Evaluate(context.Background(), policy.Context{
		User:   policy.User{ID: "u3", Roles: []string{"viewer"}},
		Action: "read",
		Resource: policy.Resource{
			ID:         "doc1",
			Owner:      "someoneelse",
			Visibility: "private",
			Permissions: map[string][]string{
				"u3": {"read"},
			},
		},
	})
	if !d.Allow {
		t.Fatalf("expected allow via explicit resource permission grant, got deny: %s", d.Reason)
	}
}
