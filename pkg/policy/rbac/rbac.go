// Package rbac implements the role-based-access-control policy: roles
// grant permissions, permissions cover action synonyms, roles inherit
// transitively, and a resource-scope check gates the final decision.
package rbac

import (
	"context"
	"fmt"

	"github.com/proofmesh/govcore/pkg/policy"
)

// RoleDef describes one configured role.
type RoleDef struct {
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
}

// Config is the RBAC policy's YAML-declared parameter set.
type Config struct {
	Roles         map[string]RoleDef  `yaml:"roles"`
	Permissions   map[string][]string `yaml:"permissions"`
	RoleHierarchy map[string][]string `yaml:"role_hierarchy"`
}

// Policy evaluates access against the configured RBAC model.
type Policy struct {
	name    string
	version string
	cfg     Config
}

// New builds an RBAC policy instance.
func New(name string, cfg Config) *Policy {
	return &Policy{name: name, version: "1.0.0", cfg: cfg}
}

func (p *Policy) Name() string    { return p.name }
func (p *Policy) Version() string { return p.version }

// expandRoles returns the transitive closure of a role set through
// role_hierarchy.
func (p *Policy) expandRoles(roles []string) map[string]bool {
	seen := map[string]bool{}
	var visit func(string)
	visit = func(r string) {
		if seen[r] {
			return
		}
		seen[r] = true
		for _, parent := range p.cfg.RoleHierarchy[r] {
			visit(parent)
		}
	}
	for _, r := range roles {
		visit(r)
	}
	return seen
}

// collectPermissions unions every permission granted by the given
// (already-expanded) role set.
func (p *Policy) collectPermissions(roles map[string]bool) map[string]bool {
	perms := map[string]bool{}
	for role := range roles {
		def, ok := p.cfg.Roles[role]
		if !ok {
			continue
		}
		for _, perm := range def.Permissions {
			perms[perm] = true
		}
	}
	return perms
}

// permits reports whether the granted permission set covers an action,
// either directly, via wildcard, or via a permission's action-synonym list.
func (p *Policy) permits(perms map[string]bool, action string) bool {
	if perms["*"] {
		return true
	}
	if perms[action] {
		return true
	}
	for perm := range perms {
		for _, synonym := range p.cfg.Permissions[perm] {
			if synonym == action {
				return true
			}
		}
	}
	return false
}

// Evaluate implements policy.Policy.
func (p *Policy) Evaluate(ctx context.Context, pctx policy.Context) (policy.Decision, error) {
	if len(pctx.User.Roles) == 0 {
		return policy.DenyDecision("no assigned roles", nil, map[string]interface{}{
			"user_roles": pctx.User.Roles,
		}), nil
	}

	expanded := p.expandRoles(pctx.User.Roles)
	perms := p.collectPermissions(expanded)
	permissionCheck := p.permits(perms, pctx.Action)

	proof := map[string]interface{}{
		"user_roles":       pctx.User.Roles,
		"user_permissions": setKeys(perms),
		"action":           pctx.Action,
		"permission_check": permissionCheck,
	}

	if !permissionCheck {
		return policy.DenyDecision(
			fmt.Sprintf("role set does not grant permission for action %q", pctx.Action),
			[]policy.Obligation{{Type: "request_permission", Description: "request permission from administrator"}},
			proof,
		), nil
	}

	ownershipCheck := p.checkResourceScope(pctx, expanded)
	proof["ownership_check"] = ownershipCheck

	if !ownershipCheck {
		return policy.DenyDecision(
			"resource scope denies access",
			[]policy.Obligation{{Type: "request_access", Description: "request access from resource owner"}},
			proof,
		), nil
	}

	return policy.AllowDecision(
		"permitted by role-based access control",
		[]policy.Obligation{{Type: "audit_log", Description: "log this RBAC-authorized operation"}},
		proof,
	), nil
}

func (p *Policy) checkResourceScope(pctx policy.Context, expandedRoles map[string]bool) bool {
	res := pctx.Resource
	if res.Owner != "" && res.Owner == pctx.User.ID {
		return true
	}
	if expandedRoles["admin"] {
		return true
	}
	if res.Visibility == "public" || res.Visibility == "shared" {
		return true
	}
	if res.Permissions != nil {
		if grants, ok := res.Permissions[pctx.User.ID]; ok {
			for _, g := range grants {
				if g == "*" || g == pctx.Action {
					return true
				}
			}
		}
	}
	return false
}

func setKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
