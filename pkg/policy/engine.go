package policy

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Engine coordinates policy evaluation: an ordered chain of named
// policies evaluated in sequence, short-circuiting on the first deny.
type Engine struct {
	mu              sync.RWMutex
	registry        *Registry
	evaluationOrder []string
	logger          *log.Logger
}

// New creates an Engine over the given registry. A nil registry creates
// a fresh empty one.
func New(registry *Registry, logger *log.Logger) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[Policy] ", log.LstdFlags)
	}
	return &Engine{registry: registry, logger: logger}
}

// Registry exposes the underlying registry, e.g. for reload operations.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// SetEvaluationOrder fixes the order in which policies are evaluated when
// Evaluate is called without an explicit name list.
func (e *Engine) SetEvaluationOrder(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evaluationOrder = append([]string{}, names...)
}

// Evaluate runs policies in order (names, if given, else the configured
// evaluation order, else every registered policy) and returns the first
// deny, or an aggregate allow if every policy allows.
func (e *Engine) Evaluate(ctx context.Context, pctx Context, names []string) Decision {
	if names == nil {
		e.mu.RLock()
		if len(e.evaluationOrder) > 0 {
			names = append([]string{}, e.evaluationOrder...)
		} else {
			names = e.registry.Names()
		}
		e.mu.RUnlock()
	}

	for _, name := range names {
		p, ok := e.registry.Get(name)
		if !ok {
			e.logger.Printf("policy not found: %s", name)
			continue
		}
		decision, err := safeEvaluate(ctx, p, pctx)
		if err != nil {
			e.logger.Printf("error evaluating policy %s: %v", name, err)
			return DenyDecision(
				fmt.Sprintf("policy evaluation error: %v", err),
				nil,
				map[string]interface{}{"policy": name, "error": err.Error()},
			)
		}
		if !decision.Allow {
			return decision
		}
	}

	return AllowDecision(
		"all policies evaluated successfully",
		nil,
		map[string]interface{}{"evaluated_policies": names},
	)
}

// EvaluateSingle evaluates exactly one named policy.
func (e *Engine) EvaluateSingle(ctx context.Context, name string, pctx Context) (Decision, bool) {
	p, ok := e.registry.Get(name)
	if !ok {
		e.logger.Printf("policy not found: %s", name)
		return Decision{}, false
	}
	decision, err := safeEvaluate(ctx, p, pctx)
	if err != nil {
		e.logger.Printf("error evaluating policy %s: %v", name, err)
		return DenyDecision(
			fmt.Sprintf("policy evaluation error: %v", err),
			nil,
			map[string]interface{}{"policy": name, "error": err.Error()},
		), true
	}
	return decision, true
}

// safeEvaluate recovers from a panicking policy and reports it as an
// evaluation error, matching the "PolicyEvaluationError never propagates
// upward" error-handling rule.
func safeEvaluate(ctx context.Context, p Policy, pctx Context) (decision Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Evaluate(ctx, pctx)
}

// RegisterPolicy registers a policy with the engine.
func (e *Engine) RegisterPolicy(p Policy) {
	e.registry.Register(p)
}

// UnregisterPolicy removes a policy from the engine.
func (e *Engine) UnregisterPolicy(name string) (Policy, bool) {
	return e.registry.Unregister(name)
}

// PolicyMetadata returns metadata for every registered policy.
func (e *Engine) PolicyMetadata() []Metadata {
	return e.registry.ListPolicies()
}
