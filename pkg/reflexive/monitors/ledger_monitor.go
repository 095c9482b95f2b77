package monitors

import (
	"github.com/proofmesh/govcore/pkg/ledger"
	"github.com/proofmesh/govcore/pkg/reflexive"
)

// LedgerChecker is the subset of the ledger store's read API the
// monitor needs. *pkg/ledger.Store satisfies it directly.
type LedgerChecker interface {
	VerifyChainIntegrity(start, end uint64) (bool, error)
	GetLedgerStatistics() (*ledger.Statistics, error)
}

// LedgerMonitor checks the ledger's own integrity on every call.
type LedgerMonitor struct {
	ledger LedgerChecker
}

// NewLedgerMonitor wraps a ledger checker (typically *pkg/ledger.Store).
func NewLedgerMonitor(ledger LedgerChecker) *LedgerMonitor {
	return &LedgerMonitor{ledger: ledger}
}

func (m *LedgerMonitor) Name() string { return "ledger_monitor" }

// Inspect implements reflexive.Monitor.
func (m *LedgerMonitor) Inspect(ctx reflexive.ActionContext) *reflexive.Finding {
	if m.ledger == nil {
		return nil
	}

	stats, err := m.ledger.GetLedgerStatistics()
	if err != nil {
		return &reflexive.Finding{
			Type: reflexive.FindingAnomaly, Severity: reflexive.SeverityMedium,
			Reason:  "integrity_check_error",
			Details: map[string]interface{}{"error": err.Error()},
		}
	}

	ok, err := m.ledger.VerifyChainIntegrity(1, stats.TotalEntries)
	if err != nil {
		return &reflexive.Finding{
			Type: reflexive.FindingAnomaly, Severity: reflexive.SeverityMedium,
			Reason:  "integrity_check_error",
			Details: map[string]interface{}{"error": err.Error()},
		}
	}
	if !ok {
		return &reflexive.Finding{
			Type: reflexive.FindingViolation, Severity: reflexive.SeverityCritical,
			Reason:  "ledger chain integrity check failed",
			Details: map[string]interface{}{"total_entries": stats.TotalEntries},
		}
	}

	if stats.TotalEntries > 0 && stats.TotalBlocks == 0 {
		return &reflexive.Finding{
			Type: reflexive.FindingAnomaly, Severity: reflexive.SeverityHigh,
			Reason:  "entries recorded with no blocks",
			Details: map[string]interface{}{"total_entries": stats.TotalEntries},
		}
	}

	return nil
}
