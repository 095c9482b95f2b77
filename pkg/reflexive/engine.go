package reflexive

import (
	"log"
	"sync"
	"time"

	"github.com/proofmesh/govcore/pkg/crypto"
	"github.com/proofmesh/govcore/pkg/ledger"
)

// LedgerAppender is the subset of the ledger store the engine needs to
// write its decisions to the audit trail. *pkg/ledger.Store satisfies
// it directly; a nil LedgerAppender means decisions are only logged.
type LedgerAppender interface {
	AppendEvent(event ledger.Event) (*ledger.Entry, error)
}

// Handler reacts to a decision once it has been made, e.g. notifying an
// escalation target. The default handlers just execute the matching Action.
type Handler func(d *Decision) error

// Engine runs the monitor pipeline over submitted actions: a bounded
// channel is the event queue (the spec calls for a typed channel rather
// than an externally-polled collector); a background goroutine takes
// each action off it as it arrives, selecting on the queue, a stop
// channel and a ticker, mirroring the teacher's batch scheduler run loop.
type Engine struct {
	mu       sync.RWMutex
	monitors []Monitor
	handlers map[DecisionType]Handler
	ledger   LedgerAppender
	logger   *log.Logger

	queue     chan ActionContext
	pollEvery time.Duration

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config configures a new Engine.
type Config struct {
	QueueSize    int
	PollInterval time.Duration
	Ledger       LedgerAppender
	Logger       *log.Logger
}

// New creates an Engine. Defaults: queue size 1024, 1s poll interval.
func New(cfg Config) *Engine {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[Reflexive] ", log.LstdFlags)
	}

	e := &Engine{
		handlers:  make(map[DecisionType]Handler),
		ledger:    cfg.Ledger,
		logger:    cfg.Logger,
		queue:     make(chan ActionContext, cfg.QueueSize),
		pollEvery: cfg.PollInterval,
	}
	e.registerDefaultHandlers()
	return e
}

func (e *Engine) registerDefaultHandlers() {
	e.handlers[DecisionHalt] = e.handleExecute
	e.handlers[DecisionEscalate] = e.handleEscalate
	e.handlers[DecisionMonitor] = e.handleExecute
	e.handlers[DecisionAllow] = e.handleExecute
}

// AddMonitor registers a monitor to run on every submitted action.
func (e *Engine) AddMonitor(m Monitor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitors = append(e.monitors, m)
}

// RemoveMonitor unregisters a monitor by name.
func (e *Engine) RemoveMonitor(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.monitors[:0]
	for _, m := range e.monitors {
		if m.Name() != name {
			out = append(out, m)
		}
	}
	e.monitors = out
}

// SetHandler overrides the handler for a decision type.
func (e *Engine) SetHandler(t DecisionType, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[t] = h
}

// Start launches the background processing goroutine. Calling Start
// twice is a no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	go e.run()
	e.logger.Println("reflexive engine started")
}

// Stop halts the processing goroutine and blocks until it has exited.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	<-e.doneCh
	e.logger.Println("reflexive engine stopped")
}

// IsRunning reports whether the processing loop is active.
func (e *Engine) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.running
}

// Submit enqueues an action for asynchronous evaluation. Submit blocks
// if the queue is full rather than dropping the action, so tests never
// have to reason about drop-vs-block semantics.
func (e *Engine) Submit(ctx ActionContext) {
	e.queue <- ctx
}

// QueueDepth reports how many actions are currently queued.
func (e *Engine) QueueDepth() int {
	return len(e.queue)
}

func (e *Engine) run() {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case ctx := <-e.queue:
			e.handleAction(ctx)
		case <-ticker.C:
			continue
		}
	}
}

func (e *Engine) handleAction(ctx ActionContext) {
	decision := e.Evaluate(ctx)
	e.execute(&decision)
	e.logDecision(&decision)
}

// Evaluate runs every registered monitor over ctx and returns the
// resulting Decision. It does not execute the decision's action or log
// to the ledger — callers that want the full pipeline use Submit.
func (e *Engine) Evaluate(ctx ActionContext) Decision {
	e.mu.RLock()
	monitors := append([]Monitor{}, e.monitors...)
	e.mu.RUnlock()

	var violations, anomalies []Finding
	for _, m := range monitors {
		finding := safeInspect(m, ctx)
		if finding == nil {
			continue
		}
		switch finding.Type {
		case FindingViolation:
			violations = append(violations, *finding)
		case FindingAnomaly:
			anomalies = append(anomalies, *finding)
		}
	}

	evidence := Evidence{Violations: violations, Anomalies: anomalies}
	risk := assessRisk(evidence)
	decisionType, reason := decide(risk, evidence)

	decision := Decision{
		DecisionID:    newDecisionID(),
		DecisionType:  decisionType,
		RiskLevel:     risk,
		ActionContext: ctx,
		Reason:        reason,
		Evidence:      evidence,
		Timestamp:     time.Now().UTC(),
	}
	if decisionType == DecisionEscalate {
		decision.EscalatedTo = escalationTarget(risk)
	}

	hash, err := crypto.HashContent(decision)
	if err == nil {
		decision.ProofHash = hash
	}
	return decision
}

func safeInspect(m Monitor, ctx ActionContext) (finding *Finding) {
	defer func() {
		if r := recover(); r != nil {
			finding = nil
		}
	}()
	return m.Inspect(ctx)
}

// assessRisk implements the fixed severity/threshold table.
func assessRisk(e Evidence) RiskLevel {
	hasSeverity := func(sev Severity) bool {
		for _, v := range e.Violations {
			if v.Severity == sev {
				return true
			}
		}
		for _, a := range e.Anomalies {
			if a.Severity == sev {
				return true
			}
		}
		return false
	}

	if hasSeverity(SeverityCritical) {
		return RiskCritical
	}
	if hasSeverity(SeverityHigh) || e.TotalIssues() >= 5 {
		return RiskHigh
	}
	if hasSeverity(SeverityMedium) || e.TotalIssues() >= 2 {
		return RiskMedium
	}
	return RiskLow
}

func decide(risk RiskLevel, e Evidence) (DecisionType, string) {
	switch risk {
	case RiskCritical, RiskHigh:
		return DecisionHalt, riskReason(risk, e)
	case RiskMedium:
		return DecisionEscalate, riskReason(risk, e)
	default:
		if e.TotalIssues() > 0 {
			return DecisionMonitor, riskReason(risk, e)
		}
		return DecisionAllow, "no violations or anomalies detected"
	}
}

func riskReason(risk RiskLevel, e Evidence) string {
	labels := map[RiskLevel]string{
		RiskCritical: "critical", RiskHigh: "high", RiskMedium: "medium", RiskLow: "low",
	}
	return labels[risk] + " risk detected"
}

func escalationTarget(risk RiskLevel) string {
	switch risk {
	case RiskCritical:
		return "security_admin"
	case RiskHigh:
		return "system_admin"
	default:
		return "monitoring_team"
	}
}

func (e *Engine) execute(d *Decision) {
	e.mu.RLock()
	handler, ok := e.handlers[d.DecisionType]
	e.mu.RUnlock()
	if !ok {
		e.logger.Printf("no handler for decision type %s", d.DecisionType)
		return
	}
	if err := handler(d); err != nil {
		e.logger.Printf("error executing decision %s: %v", d.DecisionType, err)
	}
}

func (e *Engine) handleExecute(d *Decision) error {
	action := NewAction(d.DecisionType)
	_, err := action.Execute(*d)
	switch d.DecisionType {
	case DecisionHalt:
		e.logger.Printf("HALT %s: %s", d.ActionContext.ActionID, d.Reason)
	case DecisionMonitor:
		e.logger.Printf("MONITOR %s: %s", d.ActionContext.ActionID, d.Reason)
	default:
		e.logger.Printf("ALLOW %s: %s", d.ActionContext.ActionID, d.Reason)
	}
	return err
}

func (e *Engine) handleEscalate(d *Decision) error {
	action := NewAction(DecisionEscalate)
	_, err := action.Execute(*d)
	e.logger.Printf("ESCALATE to %s: %s (%s)", d.EscalatedTo, d.ActionContext.ActionID, d.Reason)
	return err
}

func (e *Engine) logDecision(d *Decision) {
	if e.ledger == nil {
		e.logger.Printf("decision %s: %s - %s", d.DecisionID, d.DecisionType, d.Reason)
		return
	}
	event := ledger.Event{
		EventType:  ledger.EventReflexiveDecision,
		ActorID:    "reflexive_core",
		ResourceID: d.ActionContext.ActionID,
		Action:     "reflexive_" + string(d.DecisionType),
		Metadata: map[string]interface{}{
			"decision_id":  d.DecisionID,
			"risk_level":   string(d.RiskLevel),
			"reason":       d.Reason,
			"proof_hash":   d.ProofHash,
			"escalated_to": d.EscalatedTo,
		},
		Timestamp: d.Timestamp,
	}
	if _, err := e.ledger.AppendEvent(event); err != nil {
		e.logger.Printf("failed to log reflexive decision: %v", err)
	}
}

// SimulateRisk swaps in temporary monitors, evaluates once, and restores
// the original monitor set. It never writes to the ledger: the caller
// receives the Decision and decides whether to act on or log it.
func (e *Engine) SimulateRisk(ctx ActionContext, monitors []Monitor) Decision {
	e.mu.Lock()
	original := e.monitors
	e.monitors = monitors
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.monitors = original
		e.mu.Unlock()
	}()

	return e.Evaluate(ctx)
}
