// Package minnecessary implements the minimum-necessary policy: sensitive
// actions/resources require justification, admin/privileged access
// bypasses the check, and sensitive operations are refused outside
// business hours absent those bypasses.
package minnecessary

import (
	"context"

	"github.com/proofmesh/govcore/pkg/policy"
)

// Config is the minimum-necessary policy's YAML-declared parameter set.
type Config struct {
	SensitiveActions      []string `yaml:"sensitive_actions"`
	SensitiveResources    []string `yaml:"sensitive_resources"`
	RequiredJustification bool     `yaml:"required_justification"`
}

// Policy evaluates requests against the minimum-necessary model.
type Policy struct {
	name    string
	version string
	cfg     Config
}

// New builds a minimum-necessary policy instance.
func New(name string, cfg Config) *Policy {
	return &Policy{name: name, version: "1.0.0", cfg: cfg}
}

func (p *Policy) Name() string    { return p.name }
func (p *Policy) Version() string { return p.version }

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Evaluate implements policy.Policy.
func (p *Policy) Evaluate(ctx context.Context, pctx policy.Context) (policy.Decision, error) {
	sensitive := contains(p.cfg.SensitiveActions, pctx.Action) || contains(p.cfg.SensitiveResources, pctx.Resource.Type)
	if !sensitive {
		return policy.AllowDecision("neither action nor resource is sensitive", nil, map[string]interface{}{
			"action":        pctx.Action,
			"resource_type": pctx.Resource.Type,
		}), nil
	}

	if p.cfg.RequiredJustification && len(pctx.Justification) < 10 {
		return policy.DenyDecision(
			"justification required and insufficient",
			[]policy.Obligation{{Type: "provide_justification"}},
			map[string]interface{}{"justification_length": len(pctx.Justification)},
		), nil
	}

	if isAdminOrPrivileged(pctx.User) {
		return policy.AllowDecision(
			"admin or privileged access",
			[]policy.Obligation{{Type: "audit_log"}},
			map[string]interface{}{"user_roles": pctx.User.Roles},
		), nil
	}

	if contains(p.cfg.SensitiveActions, pctx.Action) && outsideBusinessHours(pctx.Hour) {
		return policy.DenyDecision(
			"sensitive action outside business hours",
			[]policy.Obligation{{Type: "schedule_operation"}},
			map[string]interface{}{"hour": pctx.Hour},
		), nil
	}

	return policy.DenyDecision(
		"insufficient permissions",
		[]policy.Obligation{{Type: "request_approval"}},
		map[string]interface{}{"action": pctx.Action},
	), nil
}

func isAdminOrPrivileged(u policy.User) bool {
	if contains(u.Roles, "admin") {
		return true
	}
	return contains(u.Permissions, "privileged")
}

// outsideBusinessHours reports whether hour falls in [22, 6).
func outsideBusinessHours(hour int) bool {
	return hour >= 22 || hour < 6
}
