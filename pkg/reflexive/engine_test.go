package reflexive_test

import (
	"testing"
	"time"

	"github.com/proofmesh/govcore/pkg/ledger"
	"github.com/proofmesh/govcore/pkg/reflexive"
	"github.com/proofmesh/govcore/pkg/reflexive/monitors"
)

// fixedMonitor returns a canned finding every time Inspect is called.
type fixedMonitor struct {
	name    string
	finding *reflexive.Finding
}

func (m fixedMonitor) Name() string { return m.name }
func (m fixedMonitor) Inspect(reflexive.ActionContext) *reflexive.Finding {
	return m.finding
}

func newTestLedger(t *testing.T) *ledger.Store {
	t.Helper()
	return ledger.New(ledger.NewMemKV(), 10)
}

// TestGuestAdminAccessHalts checks that a guest actor attempting
// admin_access is evaluated, flagged HIGH risk, and HALTed with a proof
// hash. Evaluate does not log, so the test appends the decision's ledger
// event itself and checks that the ledger gains exactly one entry.
func TestGuestAdminAccessHalts(t *testing.T) {
	store := newTestLedger(t)
	before, err := store.GetLedgerStatistics()
	if err != nil {
		t.Fatalf("GetLedgerStatistics: %v", err)
	}

	engine := reflexive.New(reflexive.Config{Ledger: store})
	engine.AddMonitor(monitors.NewPolicyMonitor())

	ctx := reflexive.ActionContext{
		ActionID:   "act-1",
		ActorID:    "guest-42",
		ActionType: "admin_access",
		Timestamp:  time.Now().UTC(),
	}

	decision := engine.Evaluate(ctx)
	if decision.DecisionType != reflexive.DecisionHalt {
		t.Fatalf("expected halt decision, got %s", decision.DecisionType)
	}
	if decision.RiskLevel != reflexive.RiskHigh {
		t.Fatalf("expected high risk, got %s", decision.RiskLevel)
	}
	if decision.ProofHash == "" {
		t.Fatal("expected proof hash to be set")
	}

	event := ledger.Event{
		EventType: ledger.EventReflexiveDecision,
		ActorID:   "reflexive_core",
		Action:    "reflexive_halt",
		Timestamp: decision.Timestamp,
	}
	if _, err := store.AppendEvent(event); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	after, err := store.GetLedgerStatistics()
	if err != nil {
		t.Fatalf("GetLedgerStatistics: %v", err)
	}
	if after.TotalEntries != before.TotalEntries+1 {
		t.Fatalf("expected ledger to gain one entry, before=%d after=%d", before.TotalEntries, after.TotalEntries)
	}
}

// TestSimulateRiskDoesNotWriteLedger checks that simulating a risk
// scenario with substitute monitors never appends to the ledger,
// regardless of the resulting decision.
func TestSimulateRiskDoesNotWriteLedger(t *testing.T) {
	store := newTestLedger(t)
	before, err := store.GetLedgerStatistics()
	if err != nil {
		t.Fatalf("GetLedgerStatistics: %v", err)
	}

	engine := reflexive.New(reflexive.Config{Ledger: store})
	engine.AddMonitor(monitors.NewPolicyMonitor())

	critical := fixedMonitor{
		name: "simulated",
		finding: &reflexive.Finding{
			Type:     reflexive.FindingViolation,
			Severity: reflexive.SeverityCritical,
			Reason:   "simulated critical violation",
		},
	}

	ctx := reflexive.ActionContext{ActionID: "sim-1", ActorID: "actor-1", ActionType: "read", Timestamp: time.Now().UTC()}
	decision := engine.SimulateRisk(ctx, []reflexive.Monitor{critical})

	if decision.RiskLevel != reflexive.RiskCritical {
		t.Fatalf("expected critical risk, got %s", decision.RiskLevel)
	}
	if decision.DecisionType != reflexive.DecisionHalt {
		t.Fatalf("expected halt decision, got %s", decision.DecisionType)
	}

	after, err := store.GetLedgerStatistics()
	if err != nil {
		t.Fatalf("GetLedgerStatistics: %v", err)
	}
	if after.TotalEntries != before.TotalEntries {
		t.Fatalf("simulate_risk must not write to the ledger: before=%d after=%d", before.TotalEntries, after.TotalEntries)
	}

	// monitor set must be restored after the simulation
	restored := engine.Evaluate(reflexive.ActionContext{ActionID: "sim-2", ActorID: "actor-2", ActionType: "read", Timestamp: time.Now().UTC()})
	if restored.DecisionType != reflexive.DecisionAllow {
		t.Fatalf("expected original monitor set restored and a clean allow, got %s", restored.DecisionType)
	}
}

// TestPanicInMonitorDoesNotFailEvaluation ensures a misbehaving monitor
// can't take down the whole pipeline.
func TestPanicInMonitorDoesNotFailEvaluation(t *testing.T) {
	panicky := panicMonitor{}
	engine := reflexive.New(reflexive.Config{})
	engine.AddMonitor(panicky)
	engine.AddMonitor(monitors.NewPolicyMonitor())

	ctx := reflexive.ActionContext{ActionID: "act-2", ActorID: "user-1", ActionType: "read", Timestamp: time.Now().UTC()}
	decision := engine.Evaluate(ctx)
	if decision.DecisionType != reflexive.DecisionAllow {
		t.Fatalf("expected allow despite panicking monitor, got %s", decision.DecisionType)
	}
}

type panicMonitor struct{}

func (panicMonitor) Name() string { return "panicky" }
func (panicMonitor) Inspect(reflexive.ActionContext) *reflexive.Finding {
	panic("boom")
}

// TestSubmitProcessesAsynchronously verifies the queue-backed Start/Stop
// loop actually drains submitted actions.
func TestSubmitProcessesAsynchronously(t *testing.T) {
	store := newTestLedger(t)
	engine := reflexive.New(reflexive.Config{Ledger: store, PollInterval: 10 * time.Millisecond})
	engine.AddMonitor(monitors.NewPolicyMonitor())
	engine.Start()
	defer engine.Stop()

	engine.Submit(reflexive.ActionContext{
		ActionID: "async-1", ActorID: "guest-1", ActionType: "admin_access", Timestamp: time.Now().UTC(),
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stats, err := store.GetLedgerStatistics()
		if err != nil {
			t.Fatalf("GetLedgerStatistics: %v", err)
		}
		if stats.TotalEntries > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected submitted action to be processed and logged within deadline")
}
