// Package ledgeradapter defines the external-anchor contract for sealed
// ledger blocks and three implementations: hyperledger, omniseal, and an
// in-memory stub. Submission is fire-and-remember — a failure to anchor
// never invalidates local ledger state, and none of these adapters can
// retroactively unseal a block.
package ledgeradapter

import (
	"context"

	"github.com/proofmesh/govcore/pkg/ledger"
)

// Proof is the shape returned by GetBlockProof. Fields that only one
// adapter reports are carried in Extra.
type Proof struct {
	BlockID     string                 `json:"block_id"`
	BlockHash   string                 `json:"block_hash"`
	BlockNumber uint64                 `json:"block_number"`
	ProofType   string                 `json:"proof_type"`
	MerkleRoot  string                 `json:"merkle_root"`
	Extra       map[string]interface{} `json:"extra,omitempty"`
}

// Adapter submits sealed block snapshots to an external anchor and can
// later verify or fetch proof of their existence there.
type Adapter interface {
	SubmitBlock(ctx context.Context, block ledger.BlockSnapshot) (anchorID string, err error)
	VerifyBlock(ctx context.Context, anchorID string) (bool, error)
	GetBlockProof(ctx context.Context, anchorID string) (*Proof, error)
}
