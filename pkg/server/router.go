// Package server exposes the governance core's operations over plain
// net/http, matching the teacher's router-free convention (no framework
// dependency anywhere in the reference stack).
package server

import (
	"log"
	"net/http"

	"github.com/proofmesh/govcore/pkg/contract"
	"github.com/proofmesh/govcore/pkg/database"
	"github.com/proofmesh/govcore/pkg/ledger"
	"github.com/proofmesh/govcore/pkg/metrics"
	"github.com/proofmesh/govcore/pkg/policy"
	"github.com/proofmesh/govcore/pkg/reflexive"
)

// Server wires the four governance subsystems onto an HTTP mux.
type Server struct {
	policyEngine    *policy.Engine
	contractEngine  *contract.Engine
	ledgerStore     *ledger.Store
	reflexiveEngine *reflexive.Engine
	metrics         *metrics.Metrics
	repos           *database.Repositories
	logger          *log.Logger
}

// New builds a Server. Any dependency may be nil; the corresponding
// routes then respond 503. repos may be nil, in which case handlers
// skip the Postgres mirror write and serve from the in-process stores
// only.
func New(policyEngine *policy.Engine, contractEngine *contract.Engine, ledgerStore *ledger.Store, reflexiveEngine *reflexive.Engine, m *metrics.Metrics) *Server {
	return &Server{
		policyEngine:    policyEngine,
		contractEngine:  contractEngine,
		ledgerStore:     ledgerStore,
		reflexiveEngine: reflexiveEngine,
		metrics:         m,
		logger:          log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}
}

// WithRepositories attaches the Postgres mirror. Handlers write through
// to it, best-effort, after a successful mutation on the in-process
// store — mirror failures are logged, never surfaced to the caller,
// since the KV ledger and in-memory contract store remain authoritative.
func (s *Server) WithRepositories(repos *database.Repositories) *Server {
	s.repos = repos
	return s
}

// Handler builds the top-level http.Handler with logging middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/detailed", s.handleHealthDetailed)

	mux.HandleFunc("POST /policy/evaluate", s.handlePolicyEvaluate)

	mux.HandleFunc("POST /contracts", s.handleContractCreate)
	mux.HandleFunc("GET /contracts", s.handleContractList)
	mux.HandleFunc("GET /contracts/statistics", s.handleContractStatistics)
	mux.HandleFunc("GET /contracts/{id}", s.handleContractGet)
	mux.HandleFunc("POST /contracts/{id}/propose", s.handleContractPropose)
	mux.HandleFunc("POST /contracts/{id}/sign", s.handleContractSign)
	mux.HandleFunc("POST /contracts/{id}/revoke", s.handleContractRevoke)

	mux.HandleFunc("POST /ledger/events", s.handleLedgerAppend)
	mux.HandleFunc("GET /ledger/entries/{seq}", s.handleLedgerEntry)
	mux.HandleFunc("GET /ledger/blocks/{n}", s.handleLedgerBlock)
	mux.HandleFunc("GET /ledger/verify/{n}", s.handleLedgerVerifyBlock)
	mux.HandleFunc("GET /ledger/verify-chain", s.handleLedgerVerifyChain)
	mux.HandleFunc("GET /ledger/proof/{seq}", s.handleLedgerProof)
	mux.HandleFunc("GET /ledger/statistics", s.handleLedgerStatistics)

	mux.HandleFunc("POST /core/simulate-risk", s.handleCoreSimulateRisk)
	mux.HandleFunc("GET /core/status", s.handleCoreStatus)
	mux.HandleFunc("POST /core/submit-action", s.handleCoreSubmitAction)
	mux.HandleFunc("GET /core/monitor-stats", s.handleCoreMonitorStats)
	mux.HandleFunc("POST /core/risk-scenario", s.handleCoreRiskScenario)

	return s.withLogging(mux)
}
