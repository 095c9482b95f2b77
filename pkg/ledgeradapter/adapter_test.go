package ledgeradapter

import (
	"context"
	"testing"

	"github.com/proofmesh/govcore/pkg/ledger"
)

func TestStubAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	stub := NewStubAdapter()

	block := ledger.BlockSnapshot{BlockNumber: 1, MerkleRoot: "abc123", EntryCount: 2, Entries: []string{"h1", "h2"}}
	id, err := stub.SubmitBlock(ctx, block)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id != "stub_block_1" {
		t.Fatalf("expected stub_block_1, got %s", id)
	}

	ok, err := stub.VerifyBlock(ctx, id)
	if err != nil || !ok {
		t.Fatalf("expected verify true, got %v err=%v", ok, err)
	}

	ok, err = stub.VerifyBlock(ctx, "nonexistent")
	if err != nil || ok {
		t.Fatalf("expected verify false for unknown id")
	}

	proof, err := stub.GetBlockProof(ctx, id)
	if err != nil {
		t.Fatalf("get proof: %v", err)
	}
	if proof == nil || proof.MerkleRoot != "abc123" {
		t.Fatalf("unexpected proof: %+v", proof)
	}

	missing, err := stub.GetBlockProof(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("get proof for missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil proof for missing anchor id")
	}
}

func TestHyperledgerAndOmniSealSubmit(t *testing.T) {
	ctx := context.Background()
	block := ledger.BlockSnapshot{BlockNumber: 5, MerkleRoot: "root5", EntryCount: 1, Entries: []string{"h1"}}

	hl := NewHyperledgerAdapter(DefaultHyperledgerConfig("net.yaml"))
	id, err := hl.SubmitBlock(ctx, block)
	if err != nil || id == "" {
		t.Fatalf("hyperledger submit: id=%q err=%v", id, err)
	}
	ok, err := hl.VerifyBlock(ctx, id)
	if err != nil || !ok {
		t.Fatalf("hyperledger verify: %v %v", ok, err)
	}

	os := NewOmniSealAdapter(DefaultOmniSealConfig())
	id2, err := os.SubmitBlock(ctx, block)
	if err != nil || id2 == "" {
		t.Fatalf("omniseal submit: id=%q err=%v", id2, err)
	}
}
