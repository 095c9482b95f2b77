package server

import (
	"net/http"
	"strconv"

	"github.com/proofmesh/govcore/pkg/ledger"
)

func (s *Server) handleLedgerAppend(w http.ResponseWriter, r *http.Request) {
	if s.ledgerStore == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger store not available")
		return
	}

	var event ledger.Event
	if err := decodeJSON(r, &event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	entry, err := s.ledgerStore.AppendEvent(event)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.LedgerEntriesAppended.Inc()
	}
	if block, err := s.ledgerStore.GetBlock(entry.BlockID); err == nil {
		// The block row goes first: ledger_entries.block_id references it.
		if s.repos != nil {
			if err := s.repos.Ledger.InsertBlock(r.Context(), block); err != nil {
				s.logger.Printf("ledger block mirror write failed for block %d: %v", block.BlockNumber, err)
			}
		}
		if block.Sealed() && s.metrics != nil {
			s.metrics.LedgerBlocksSealed.Inc()
		}
	}
	if s.repos != nil {
		if err := s.repos.Ledger.InsertEntry(r.Context(), entry); err != nil {
			s.logger.Printf("ledger entry mirror write failed for seq %d: %v", entry.SequenceNumber, err)
		}
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleLedgerEntry(w http.ResponseWriter, r *http.Request) {
	if s.ledgerStore == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger store not available")
		return
	}

	seq, err := strconv.ParseUint(r.PathValue("seq"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sequence number")
		return
	}

	entry, err := s.ledgerStore.GetEntry(seq)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleLedgerBlock(w http.ResponseWriter, r *http.Request) {
	if s.ledgerStore == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger store not available")
		return
	}

	num, err := strconv.ParseUint(r.PathValue("n"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid block number")
		return
	}

	block, err := s.ledgerStore.GetBlock(num)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	entries, err := s.ledgerStore.GetBlockEntries(num)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"block": block, "entries": entries})
}

func (s *Server) handleLedgerVerifyBlock(w http.ResponseWriter, r *http.Request) {
	if s.ledgerStore == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger store not available")
		return
	}

	num, err := strconv.ParseUint(r.PathValue("n"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid block number")
		return
	}

	ok, err := s.ledgerStore.VerifyBlockIntegrity(num)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": ok})
}

func (s *Server) handleLedgerVerifyChain(w http.ResponseWriter, r *http.Request) {
	if s.ledgerStore == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger store not available")
		return
	}

	start, err := strconv.ParseUint(r.URL.Query().Get("start_sequence"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_sequence")
		return
	}
	end, err := strconv.ParseUint(r.URL.Query().Get("end_sequence"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_sequence")
		return
	}

	ok, err := s.ledgerStore.VerifyChainIntegrity(start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"verified": ok})
}

func (s *Server) handleLedgerProof(w http.ResponseWriter, r *http.Request) {
	if s.ledgerStore == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger store not available")
		return
	}

	seq, err := strconv.ParseUint(r.PathValue("seq"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sequence number")
		return
	}

	proof, err := s.ledgerStore.BuildProof(seq)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, proof)
}

func (s *Server) handleLedgerStatistics(w http.ResponseWriter, r *http.Request) {
	if s.ledgerStore == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger store not available")
		return
	}

	stats, err := s.ledgerStore.GetLedgerStatistics()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
