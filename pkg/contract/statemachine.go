package contract

// transitions is the table of legal contract state changes. Propose and
// Revoke consult it through canTransition. Sign checks for PROPOSED or
// SIGNED directly before its PROPOSED→SIGNED move, and CleanupExpired
// moves any non-terminal state to EXPIRED, a target this table does not
// list. The PROPOSED→DRAFT entry is listed, but no engine operation
// makes that change.
var transitions = map[State][]State{
	StateDraft:    {StateProposed, StateRevoked},
	StateProposed: {StateSigned, StateRevoked, StateDraft},
	StateSigned:   {StateRevoked},
	StateRevoked:  {},
	StateExpired:  {},
}

// canTransition reports whether moving from one state to another is legal.
func canTransition(from, to State) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// isTerminal reports whether a state has no outgoing transitions.
func isTerminal(s State) bool {
	return len(transitions[s]) == 0
}
