package ledger

import (
	"time"

	"github.com/proofmesh/govcore/pkg/crypto"
)

// EventType enumerates the kinds of events the provenance ledger records.
type EventType string

const (
	EventToolCall         EventType = "tool_call"
	EventPolicyDecision   EventType = "policy_decision"
	EventDataFlow         EventType = "data_flow"
	EventContractAction   EventType = "contract_action"
	EventAuthn            EventType = "authn"
	EventAuthz            EventType = "authz"
	EventSystem           EventType = "system"
	EventReflexiveDecision EventType = "reflexive_decision"
)

// Event is the payload written to the log. ContentHash is computed over
// the canonical (sorted-key) encoding of every field below it.
type Event struct {
	EventType EventType              `json:"event_type"`
	ActorID   string                 `json:"actor_id"`
	ResourceID string                `json:"resource_id,omitempty"`
	Action    string                 `json:"action"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	DataHash  string                 `json:"data_hash,omitempty"`
}

// hashable returns the field set that participates in the event content
// hash, in the exact shape passed to crypto.HashContent.
func (e Event) hashable() map[string]interface{} {
	return map[string]interface{}{
		"event_type":  e.EventType,
		"actor_id":    e.ActorID,
		"resource_id": e.ResourceID,
		"action":      e.Action,
		"metadata":    e.Metadata,
		"timestamp":   e.Timestamp.UTC().Format(time.RFC3339Nano),
		"data_hash":   e.DataHash,
	}
}

// ContentHash returns the lowercase hex SHA-256 of the event's canonical
// encoding, the same field set that is folded into its entry's hash.
func (e Event) ContentHash() (string, error) {
	return crypto.HashContent(e.hashable())
}

// Entry is the persisted wrapper for one event. Sequence numbers are
// strictly increasing and contiguous from 1; PreviousHash is empty only
// for sequence 1.
type Entry struct {
	SequenceNumber uint64    `json:"sequence_number"`
	Event          Event     `json:"event"`
	PreviousHash   string    `json:"previous_hash,omitempty"`
	EntryHash      string    `json:"entry_hash"`
	BlockID        uint64    `json:"block_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// hashable returns the field set hashed to produce EntryHash.
func (e Entry) hashable() map[string]interface{} {
	return map[string]interface{}{
		"sequence_number": e.SequenceNumber,
		"event":           e.Event.hashable(),
		"previous_hash":   e.PreviousHash,
		"created_at":      e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// Block is a rolling batch of entries. MerkleRoot is empty until sealed;
// once SealedAt is set the block is immutable.
type Block struct {
	BlockNumber  uint64     `json:"block_number"`
	FirstSeq     uint64     `json:"first_sequence"`
	LastSeq      uint64     `json:"last_sequence"`
	EntryCount   uint64     `json:"entry_count"`
	MerkleRoot   string     `json:"merkle_root,omitempty"`
	SealedAt     *time.Time `json:"sealed_at,omitempty"`
	IsVerified   bool       `json:"is_verified"`
}

// Sealed reports whether the block has been sealed.
func (b Block) Sealed() bool {
	return b.SealedAt != nil
}

// Statistics summarizes the ledger's current state.
type Statistics struct {
	TotalEntries   uint64 `json:"total_entries"`
	TotalBlocks    uint64 `json:"total_blocks"`
	SealedBlocks   uint64 `json:"sealed_blocks"`
	UnsealedBlocks uint64 `json:"unsealed_blocks"`
	CurrentBlock   uint64 `json:"current_block"`
}

// BlockSnapshot is the data handed to an external ledger adapter when a
// block is submitted for anchoring.
type BlockSnapshot struct {
	BlockNumber uint64   `json:"block_number"`
	MerkleRoot  string   `json:"merkle_root"`
	EntryCount  uint64   `json:"entry_count"`
	Entries     []string `json:"entries"` // entry hashes, in order
}
