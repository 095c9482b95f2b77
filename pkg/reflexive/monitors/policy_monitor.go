// Package monitors holds the reflexive engine's built-in Monitor
// implementations.
package monitors

import (
	"strings"
	"sync"
	"time"

	"github.com/proofmesh/govcore/pkg/reflexive"
)

// PolicyMonitor flags admin-access attempts by guest actors, actors
// with repeated recent violations, and access to sensitive resources
// that lack an authorized flag in metadata.
type PolicyMonitor struct {
	mu      sync.Mutex
	history []violationRecord
	counts  map[string]int
}

type violationRecord struct {
	actorID string
	at      time.Time
}

// NewPolicyMonitor creates an empty PolicyMonitor.
func NewPolicyMonitor() *PolicyMonitor {
	return &PolicyMonitor{counts: make(map[string]int)}
}

func (m *PolicyMonitor) Name() string { return "policy_monitor" }

// Inspect implements reflexive.Monitor.
func (m *PolicyMonitor) Inspect(ctx reflexive.ActionContext) *reflexive.Finding {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.ActionType == "admin_access" && strings.HasPrefix(ctx.ActorID, "guest") {
		m.recordLocked(ctx.ActorID)
		return &reflexive.Finding{
			Type: reflexive.FindingViolation, Severity: reflexive.SeverityHigh,
			Reason:  "guest actor attempted admin access",
			Details: map[string]interface{}{"actor_id": ctx.ActorID, "action_type": ctx.ActionType},
		}
	}

	if m.recentViolationCountLocked(ctx.ActorID, 5*time.Minute) >= 3 {
		m.recordLocked(ctx.ActorID)
		return &reflexive.Finding{
			Type: reflexive.FindingViolation, Severity: reflexive.SeverityMedium,
			Reason:  "actor exceeded violation rate limit",
			Details: map[string]interface{}{"actor_id": ctx.ActorID},
		}
	}

	if strings.Contains(ctx.ResourceID, "sensitive") && !truthy(ctx.Metadata["authorized"]) {
		m.recordLocked(ctx.ActorID)
		return &reflexive.Finding{
			Type: reflexive.FindingViolation, Severity: reflexive.SeverityCritical,
			Reason:  "unauthorized access to sensitive resource",
			Details: map[string]interface{}{"resource_id": ctx.ResourceID},
		}
	}

	return nil
}

func (m *PolicyMonitor) recordLocked(actorID string) {
	m.history = append(m.history, violationRecord{actorID: actorID, at: time.Now().UTC()})
	if len(m.history) > 1000 {
		m.history = m.history[len(m.history)-1000:]
	}
	m.counts[actorID]++
}

func (m *PolicyMonitor) recentViolationCountLocked(actorID string, window time.Duration) int {
	cutoff := time.Now().UTC().Add(-window)
	count := 0
	for _, rec := range m.history {
		if rec.actorID == actorID && rec.at.After(cutoff) {
			count++
		}
	}
	return count
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "false" && t != "0"
	case nil:
		return false
	default:
		return true
	}
}
