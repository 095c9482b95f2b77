package server

import "net/http"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	detail := map[string]interface{}{"status": "ok"}

	if s.ledgerStore != nil {
		stats, err := s.ledgerStore.GetLedgerStatistics()
		if err != nil {
			detail["ledger"] = map[string]string{"error": err.Error()}
		} else {
			detail["ledger"] = stats
		}
	}

	if s.reflexiveEngine != nil {
		detail["reflexive_running"] = s.reflexiveEngine.IsRunning()
		detail["reflexive_queue_depth"] = s.reflexiveEngine.QueueDepth()
	}

	if s.contractEngine != nil {
		detail["contracts"] = s.contractEngine.Statistics()
	}

	writeJSON(w, http.StatusOK, detail)
}
