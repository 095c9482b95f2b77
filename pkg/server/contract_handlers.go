package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/proofmesh/govcore/pkg/contract"
)

func (s *Server) handleContractCreate(w http.ResponseWriter, r *http.Request) {
	if s.contractEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "contract engine not available")
		return
	}

	var body struct {
		contract.CreateRequest
		CreatedBy string `json:"created_by"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	c, err := s.contractEngine.Create(body.CreateRequest, body.CreatedBy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ContractTransitions.WithLabelValues("", string(c.State)).Inc()
	}
	s.mirrorContract(r, c)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleContractList(w http.ResponseWriter, r *http.Request) {
	if s.contractEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "contract engine not available")
		return
	}

	var state *contract.State
	if q := r.URL.Query().Get("state"); q != "" {
		st := contract.State(q)
		state = &st
	}
	var createdBy *string
	if q := r.URL.Query().Get("created_by"); q != "" {
		createdBy = &q
	}

	writeJSON(w, http.StatusOK, s.contractEngine.List(state, createdBy))
}

func (s *Server) handleContractStatistics(w http.ResponseWriter, r *http.Request) {
	if s.contractEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "contract engine not available")
		return
	}
	writeJSON(w, http.StatusOK, s.contractEngine.Statistics())
}

func (s *Server) handleContractGet(w http.ResponseWriter, r *http.Request) {
	if s.contractEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "contract engine not available")
		return
	}

	c, err := s.contractEngine.Get(r.PathValue("id"))
	if err != nil {
		s.writeContractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleContractPropose(w http.ResponseWriter, r *http.Request) {
	if s.contractEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "contract engine not available")
		return
	}

	var req struct {
		contract.ProposeRequest
		ProposedBy string `json:"proposed_by"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	before, err := s.contractEngine.Get(r.PathValue("id"))
	if err != nil {
		s.writeContractError(w, err)
		return
	}

	c, err := s.contractEngine.Propose(r.PathValue("id"), req.ProposeRequest, req.ProposedBy)
	if err != nil {
		s.writeContractError(w, err)
		return
	}
	s.recordTransition(before.State, c.State)
	s.mirrorContract(r, c)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleContractSign(w http.ResponseWriter, r *http.Request) {
	if s.contractEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "contract engine not available")
		return
	}

	var req contract.SignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	before, err := s.contractEngine.Get(r.PathValue("id"))
	if err != nil {
		s.writeContractError(w, err)
		return
	}

	c, err := s.contractEngine.Sign(r.PathValue("id"), req)
	if err != nil {
		s.writeContractError(w, err)
		return
	}
	s.recordTransition(before.State, c.State)
	s.mirrorContract(r, c)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleContractRevoke(w http.ResponseWriter, r *http.Request) {
	if s.contractEngine == nil {
		writeError(w, http.StatusServiceUnavailable, "contract engine not available")
		return
	}

	var req contract.RevokeRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	before, err := s.contractEngine.Get(r.PathValue("id"))
	if err != nil {
		s.writeContractError(w, err)
		return
	}

	c, err := s.contractEngine.Revoke(r.PathValue("id"), req)
	if err != nil {
		s.writeContractError(w, err)
		return
	}
	s.recordTransition(before.State, c.State)
	s.mirrorContract(r, c)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) recordTransition(from, to contract.State) {
	if s.metrics != nil {
		s.metrics.ContractTransitions.WithLabelValues(string(from), string(to)).Inc()
	}
}

// mirrorContract best-effort writes the contract's current state to the
// Postgres mirror. A mirror failure is logged and never surfaced to the
// caller: the in-memory contract store remains authoritative.
func (s *Server) mirrorContract(r *http.Request, c *contract.Contract) {
	if s.repos == nil {
		return
	}
	if err := s.repos.Contracts.Upsert(r.Context(), c); err != nil {
		s.logger.Printf("contract mirror write failed for %s: %v", c.ID, err)
	}
}

func (s *Server) writeContractError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contract.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, contract.ErrInvalidTransition),
		errors.Is(err, contract.ErrDuplicateSigner),
		errors.Is(err, contract.ErrInvalidSignature),
		errors.Is(err, contract.ErrDuplicatePartyID),
		errors.Is(err, contract.ErrAlreadyRevoked),
		errors.Is(err, contract.ErrAlreadyExpired):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
