package server

import (
	"net/http"

	"github.com/proofmesh/govcore/pkg/policy"
)

type policyEvaluateRequest struct {
	Context     policy.Context `json:"context"`
	PolicyNames []string       `json:"policy_names,omitempty"`
}

func (s *Server) handlePolicyEvaluate(w http.ResponseWriter, r *http.Request) {
	if s.policyEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "policy engine not available")
		return
	}

	var req policyEvaluateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	decision := s.policyEngine.Evaluate(r.Context(), req.Context, req.PolicyNames)

	if s.metrics != nil {
		policyLabel := "combined"
		if len(req.PolicyNames) == 1 {
			policyLabel = req.PolicyNames[0]
		}
		s.metrics.PolicyDecisions.WithLabelValues(policyLabel, boolLabel(decision.Allow)).Inc()
	}

	writeJSON(w, http.StatusOK, decision)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
