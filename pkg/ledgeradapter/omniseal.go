package ledgeradapter

import (
	"context"

	"github.com/proofmesh/govcore/pkg/crypto"
	"github.com/proofmesh/govcore/pkg/ledger"
)

// OmniSealConfig configures an OmniSealAdapter.
type OmniSealConfig struct {
	APIEndpoint string
	APIKey      string
	NetworkID   string
}

// DefaultOmniSealConfig mirrors the reference adapter's defaults.
func DefaultOmniSealConfig() OmniSealConfig {
	return OmniSealConfig{
		APIEndpoint: "https://api.omniseal.com",
		NetworkID:   "mainnet",
	}
}

// OmniSealAdapter is a stub OmniSeal anchor adapter: submissions are
// hashed locally (sha256 of the canonical submission) rather than posted
// to a live OmniSeal API, pending a real HTTP client being wired in.
type OmniSealAdapter struct {
	cfg OmniSealConfig
}

// NewOmniSealAdapter creates an OmniSealAdapter.
func NewOmniSealAdapter(cfg OmniSealConfig) *OmniSealAdapter {
	return &OmniSealAdapter{cfg: cfg}
}

// SubmitBlock computes a deterministic transaction ID for the block.
func (o *OmniSealAdapter) SubmitBlock(_ context.Context, block ledger.BlockSnapshot) (string, error) {
	txID, err := crypto.HashContent(map[string]interface{}{
		"network_id": o.cfg.NetworkID,
		"block_data": block,
	})
	if err != nil {
		return "", err
	}
	return txID, nil
}

// VerifyBlock always reports true, matching the reference stub.
func (o *OmniSealAdapter) VerifyBlock(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// GetBlockProof returns a synthetic OmniSeal-shaped proof.
func (o *OmniSealAdapter) GetBlockProof(_ context.Context, anchorID string) (*Proof, error) {
	return &Proof{
		BlockID:    anchorID,
		BlockHash:  "omniseal_hash_" + anchorID,
		ProofType:  "omniseal",
		MerkleRoot: "merkle_root_" + anchorID,
		Extra: map[string]interface{}{
			"network_id": o.cfg.NetworkID,
		},
	}, nil
}
