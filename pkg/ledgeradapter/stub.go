package ledgeradapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/proofmesh/govcore/pkg/ledger"
)

// StubAdapter is a real in-memory adapter, authoritative for tests:
// submissions are actually stored rather than faked, so VerifyBlock and
// GetBlockProof reflect genuine prior submissions.
type StubAdapter struct {
	mu      sync.Mutex
	blocks  map[string]ledger.BlockSnapshot
	nextNum int
}

// NewStubAdapter creates an empty stub adapter.
func NewStubAdapter() *StubAdapter {
	return &StubAdapter{blocks: make(map[string]ledger.BlockSnapshot)}
}

// SubmitBlock stores the block and returns a sequential synthetic ID.
func (s *StubAdapter) SubmitBlock(_ context.Context, block ledger.BlockSnapshot) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextNum++
	id := fmt.Sprintf("stub_block_%d", s.nextNum)
	s.blocks[id] = block
	return id, nil
}

// VerifyBlock reports whether anchorID was previously submitted.
func (s *StubAdapter) VerifyBlock(_ context.Context, anchorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocks[anchorID]
	return ok, nil
}

// GetBlockProof returns a proof built from the stored block, or nil if
// the anchor ID was never submitted.
func (s *StubAdapter) GetBlockProof(_ context.Context, anchorID string) (*Proof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	block, ok := s.blocks[anchorID]
	if !ok {
		return nil, nil
	}
	return &Proof{
		BlockID:     anchorID,
		BlockHash:   "stub_hash_" + anchorID,
		BlockNumber: block.BlockNumber,
		ProofType:   "stub",
		MerkleRoot:  block.MerkleRoot,
	}, nil
}
