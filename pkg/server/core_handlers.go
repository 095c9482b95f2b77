package server

import (
	"net/http"

	"github.com/proofmesh/govcore/pkg/reflexive"
	"github.com/proofmesh/govcore/pkg/reflexive/monitors"
)

func (s *Server) handleCoreSimulateRisk(w http.ResponseWriter, r *http.Request) {
	if s.reflexiveEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "reflexive engine not available")
		return
	}

	var req struct {
		Action reflexive.ActionContext `json:"action"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	decision := s.reflexiveEngine.SimulateRisk(req.Action, currentMonitors())
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleCoreStatus(w http.ResponseWriter, r *http.Request) {
	if s.reflexiveEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "reflexive engine not available")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"running":     s.reflexiveEngine.IsRunning(),
		"queue_depth": s.reflexiveEngine.QueueDepth(),
	})
}

func (s *Server) handleCoreSubmitAction(w http.ResponseWriter, r *http.Request) {
	if s.reflexiveEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "reflexive engine not available")
		return
	}

	var action reflexive.ActionContext
	if err := decodeJSON(r, &action); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s.reflexiveEngine.Submit(action)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleCoreMonitorStats(w http.ResponseWriter, r *http.Request) {
	if s.reflexiveEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "reflexive engine not available")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"queue_depth": s.reflexiveEngine.QueueDepth(),
		"running":     s.reflexiveEngine.IsRunning(),
	})
}

// namedScenarios maps a scenario name to a canned ActionContext, letting
// callers synthesize the built-in monitor trigger conditions by name
// instead of constructing an ActionContext by hand.
var namedScenarios = map[string]reflexive.ActionContext{
	"guest_admin_access": {
		ActorID:    "guest-scenario",
		ActionType: "admin_access",
	},
	"sensitive_resource_unauthorized": {
		ActorID:    "actor-scenario",
		ActionType: "read",
		ResourceID: "sensitive-resource-1",
	},
}

func (s *Server) handleCoreRiskScenario(w http.ResponseWriter, r *http.Request) {
	if s.reflexiveEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "reflexive engine not available")
		return
	}

	var req struct {
		Scenario string `json:"scenario"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	action, ok := namedScenarios[req.Scenario]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown scenario: "+req.Scenario)
		return
	}

	decision := s.reflexiveEngine.SimulateRisk(action, currentMonitors())
	writeJSON(w, http.StatusOK, decision)
}

func currentMonitors() []reflexive.Monitor {
	return []reflexive.Monitor{
		monitors.NewPolicyMonitor(),
		monitors.NewAnomalyMonitor(),
	}
}
