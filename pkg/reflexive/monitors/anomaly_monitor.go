package monitors

import (
	"sync"
	"time"

	"github.com/proofmesh/govcore/pkg/reflexive"
)

const (
	sessionHistoryLimit  = 100
	highFrequencyWindow  = 5 * time.Minute
	highFrequencyActions = 20
	businessHourStart    = 6
	businessHourEnd      = 22
	unusualTimingMinSeen = 5
)

var privilegedActionTypes = map[string]bool{
	"admin_access":         true,
	"root_access":          true,
	"privilege_escalation": true,
}

type actorPattern struct {
	actionCounts   map[string]int
	resourceAccess map[string]int
	sessionTimes   []time.Time
	lastSeen       time.Time
}

// AnomalyMonitor tracks per-actor behavioral patterns and flags
// deviations: unusually high action frequency, off-hours activity on
// an action type rarely seen before, first-time access to a resource,
// and first-time use of a privileged action type.
type AnomalyMonitor struct {
	mu      sync.Mutex
	actors  map[string]*actorPattern
	nowFunc func() time.Time
}

// NewAnomalyMonitor creates an empty AnomalyMonitor.
func NewAnomalyMonitor() *AnomalyMonitor {
	return &AnomalyMonitor{
		actors:  make(map[string]*actorPattern),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

func (m *AnomalyMonitor) Name() string { return "anomaly_detector" }

// Inspect implements reflexive.Monitor. Only the first triggering flag
// is returned per call, in the order: high_frequency, unusual_timing,
// new_resource_access, privilege_escalation.
func (m *AnomalyMonitor) Inspect(ctx reflexive.ActionContext) *reflexive.Finding {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	pat, ok := m.actors[ctx.ActorID]
	if !ok {
		pat = &actorPattern{actionCounts: map[string]int{}, resourceAccess: map[string]int{}}
		m.actors[ctx.ActorID] = pat
	}

	seenBefore := pat.actionCounts[ctx.ActionType]
	firstResourceAccess := ctx.ResourceID != "" && pat.resourceAccess[ctx.ResourceID] == 0
	firstPrivilegedUse := privilegedActionTypes[ctx.ActionType] && seenBefore == 0

	pat.actionCounts[ctx.ActionType]++
	if ctx.ResourceID != "" {
		pat.resourceAccess[ctx.ResourceID]++
	}
	pat.sessionTimes = append(pat.sessionTimes, now)
	if len(pat.sessionTimes) > sessionHistoryLimit {
		pat.sessionTimes = pat.sessionTimes[len(pat.sessionTimes)-sessionHistoryLimit:]
	}
	pat.lastSeen = now

	if m.countSince(pat, now.Add(-highFrequencyWindow)) > highFrequencyActions {
		return &reflexive.Finding{
			Type: reflexive.FindingAnomaly, Severity: reflexive.SeverityMedium,
			Reason:  "high_frequency",
			Details: map[string]interface{}{"actor_id": ctx.ActorID},
		}
	}

	hour := now.Hour()
	if (hour < businessHourStart || hour >= businessHourEnd) && seenBefore < unusualTimingMinSeen {
		return &reflexive.Finding{
			Type: reflexive.FindingAnomaly, Severity: reflexive.SeverityLow,
			Reason:  "unusual_timing",
			Details: map[string]interface{}{"actor_id": ctx.ActorID, "hour": hour},
		}
	}

	if firstResourceAccess {
		return &reflexive.Finding{
			Type: reflexive.FindingAnomaly, Severity: reflexive.SeverityLow,
			Reason:  "new_resource_access",
			Details: map[string]interface{}{"actor_id": ctx.ActorID, "resource_id": ctx.ResourceID},
		}
	}

	if firstPrivilegedUse {
		return &reflexive.Finding{
			Type: reflexive.FindingAnomaly, Severity: reflexive.SeverityHigh,
			Reason:  "privilege_escalation",
			Details: map[string]interface{}{"actor_id": ctx.ActorID, "action_type": ctx.ActionType},
		}
	}

	return nil
}

func (m *AnomalyMonitor) countSince(pat *actorPattern, cutoff time.Time) int {
	count := 0
	for _, t := range pat.sessionTimes {
		if t.After(cutoff) {
			count++
		}
	}
	return count
}
