package ledgeradapter

import (
	"context"
	"fmt"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/proofmesh/govcore/pkg/crypto"
	"github.com/proofmesh/govcore/pkg/ledger"
)

// HyperledgerConfig configures a HyperledgerAdapter. All fields carry the
// reference network's defaults; none of them dial out in this
// implementation, which stays a documented stub pending a real Fabric
// SDK client.
type HyperledgerConfig struct {
	NetworkConfig   string
	ChannelName     string
	ChaincodeName   string
	PeerEndpoint    string
	OrdererEndpoint string
}

// DefaultHyperledgerConfig mirrors the reference adapter's defaults.
func DefaultHyperledgerConfig(networkConfig string) HyperledgerConfig {
	return HyperledgerConfig{
		NetworkConfig:   networkConfig,
		ChannelName:     "mcp-channel",
		ChaincodeName:   "provenance-ledger",
		PeerEndpoint:    "localhost:7051",
		OrdererEndpoint: "localhost:7050",
	}
}

// HyperledgerAdapter is a stub Hyperledger Fabric anchor adapter: it
// computes a deterministic transaction ID for each submission (a keccak
// hash of the canonical submission content, rather than calling out to a
// Fabric peer) and returns synthetic proof fields shaped like a real
// Fabric endorsement so callers can develop against the final wire shape
// before a Fabric SDK client is wired in.
type HyperledgerAdapter struct {
	cfg HyperledgerConfig
}

// NewHyperledgerAdapter creates a HyperledgerAdapter.
func NewHyperledgerAdapter(cfg HyperledgerConfig) *HyperledgerAdapter {
	return &HyperledgerAdapter{cfg: cfg}
}

// SubmitBlock computes a transaction ID for the block and returns it.
func (h *HyperledgerAdapter) SubmitBlock(_ context.Context, block ledger.BlockSnapshot) (string, error) {
	canonical, err := crypto.CanonicalJSON(map[string]interface{}{
		"block_number": block.BlockNumber,
		"merkle_root":  block.MerkleRoot,
		"entry_count":  block.EntryCount,
		"entries":      block.Entries,
	})
	if err != nil {
		return "", fmt.Errorf("canonicalize block: %w", err)
	}
	txHash := ethcrypto.Keccak256(canonical)
	return fmt.Sprintf("hlf_%x", txHash), nil
}

// VerifyBlock always reports true: the stub client never actually queries
// a peer, so every previously-submitted ID is considered valid.
func (h *HyperledgerAdapter) VerifyBlock(_ context.Context, _ string) (bool, error) {
	return true, nil
}

// GetBlockProof returns a synthetic proof shaped like a Fabric
// endorsement.
func (h *HyperledgerAdapter) GetBlockProof(_ context.Context, anchorID string) (*Proof, error) {
	return &Proof{
		BlockID:    anchorID,
		BlockHash:  "hyperledger_hash_" + anchorID,
		ProofType:  "hyperledger_fabric",
		MerkleRoot: "merkle_root_" + anchorID,
		Extra: map[string]interface{}{
			"channel":    h.cfg.ChannelName,
			"chaincode":  h.cfg.ChaincodeName,
			"signatures": []string{"peer1_signature", "peer2_signature"},
		},
	}, nil
}
