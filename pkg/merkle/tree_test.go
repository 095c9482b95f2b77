package merkle

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

// entryHash stands in for a ledger entry's 32-byte hash; n just makes
// each call produce a distinct value.
func entryHash(n int) []byte {
	h := sha256.Sum256([]byte{byte(n), byte(n >> 8)})
	return h[:]
}

func TestRootForSingleLeafIsTheLeafItself(t *testing.T) {
	leaf := entryHash(7)
	tree, err := BuildTree([][]byte{leaf})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if !bytes.Equal(tree.Root(), leaf) {
		t.Errorf("root = %x, want %x", tree.Root(), leaf)
	}
	if tree.LeafCount() != 1 {
		t.Errorf("LeafCount() = %d, want 1", tree.LeafCount())
	}
}

func TestRootForTwoLeavesMatchesHashPair(t *testing.T) {
	a, b := entryHash(1), entryHash(2)
	tree, err := BuildTree([][]byte{a, b})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	buf := append(append([]byte{}, a...), b...)
	want := sha256.Sum256(buf)
	if !bytes.Equal(tree.Root(), want[:]) {
		t.Errorf("root = %x, want %x", tree.Root(), want[:])
	}
}

func TestBuildTreeAcceptsVariousLeafCounts(t *testing.T) {
	for _, n := range []int{3, 4, 5, 7, 16, 100} {
		leaves := make([][]byte, n)
		for i := range leaves {
			leaves[i] = entryHash(i)
		}
		tree, err := BuildTree(leaves)
		if err != nil {
			t.Fatalf("n=%d: BuildTree: %v", n, err)
		}
		if tree.LeafCount() != n {
			t.Errorf("n=%d: LeafCount() = %d", n, tree.LeafCount())
		}
		if len(tree.Root()) != leafSize {
			t.Errorf("n=%d: root length = %d, want %d", n, len(tree.Root()), leafSize)
		}
	}
}

func TestBuildTreeRejectsEmptyAndMalformedLeaves(t *testing.T) {
	if _, err := BuildTree(nil); err != ErrEmptyTree {
		t.Errorf("nil leaves: err = %v, want ErrEmptyTree", err)
	}
	if _, err := BuildTree([][]byte{}); err != ErrEmptyTree {
		t.Errorf("empty leaves: err = %v, want ErrEmptyTree", err)
	}
	if _, err := BuildTree([][]byte{[]byte("too short")}); err == nil {
		t.Error("expected an error for a non-32-byte leaf")
	}
}

func TestProofRoundTripsForEveryLeaf(t *testing.T) {
	const n = 9 // odd, exercises the self-paired node at more than one level
	leaves := make([][]byte, n)
	for i := range leaves {
		leaves[i] = entryHash(i)
	}
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	for i := 0; i < n; i++ {
		proof, err := tree.GenerateProof(i)
		if err != nil {
			t.Fatalf("leaf %d: GenerateProof: %v", i, err)
		}
		if proof.LeafIndex != i {
			t.Errorf("leaf %d: LeafIndex = %d", i, proof.LeafIndex)
		}
		ok, err := VerifyProof(leaves[i], proof, tree.Root())
		if err != nil {
			t.Fatalf("leaf %d: VerifyProof: %v", i, err)
		}
		if !ok {
			t.Errorf("leaf %d: proof did not verify against the tree root", i)
		}
	}
}

func TestProofStepSidesForTwoLeafTree(t *testing.T) {
	a, b := entryHash(10), entryHash(11)
	tree, err := BuildTree([][]byte{a, b})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	left, err := tree.GenerateProof(0)
	if err != nil {
		t.Fatalf("GenerateProof(0): %v", err)
	}
	if len(left.Path) != 1 || left.Path[0].Side != SideRight {
		t.Fatalf("leaf 0 sibling side = %+v, want a single Right step", left.Path)
	}

	right, err := tree.GenerateProof(1)
	if err != nil {
		t.Fatalf("GenerateProof(1): %v", err)
	}
	if len(right.Path) != 1 || right.Path[0].Side != SideLeft {
		t.Fatalf("leaf 1 sibling side = %+v, want a single Left step", right.Path)
	}
}

func TestVerifyProofRejectsTamperedInputs(t *testing.T) {
	a, b := entryHash(20), entryHash(21)
	tree, err := BuildTree([][]byte{a, b})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	proof, err := tree.GenerateProof(0)
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}

	if ok, err := VerifyProof(entryHash(99), proof, tree.Root()); err != nil || ok {
		t.Errorf("wrong leaf: ok=%v err=%v, want ok=false", ok, err)
	}
	if ok, err := VerifyProof(a, proof, entryHash(98)); err != nil || ok {
		t.Errorf("wrong root: ok=%v err=%v, want ok=false", ok, err)
	}
}

func TestGenerateProofByHashFindsTheMatchingLeaf(t *testing.T) {
	a, b, c := entryHash(30), entryHash(31), entryHash(32)
	tree, err := BuildTree([][]byte{a, b, c})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	proof, err := tree.GenerateProofByHash(c)
	if err != nil {
		t.Fatalf("GenerateProofByHash: %v", err)
	}
	if proof.LeafIndex != 2 {
		t.Errorf("LeafIndex = %d, want 2", proof.LeafIndex)
	}
	if ok, err := VerifyProof(c, proof, tree.Root()); err != nil || !ok {
		t.Errorf("ok=%v err=%v, want a verifying proof", ok, err)
	}

	if _, err := tree.GenerateProofByHash(entryHash(999)); err != ErrLeafNotFound {
		t.Errorf("unknown hash: err = %v, want ErrLeafNotFound", err)
	}
}

func TestProofSurvivesJSONRoundTrip(t *testing.T) {
	leaves := make([][]byte, 6)
	for i := range leaves {
		leaves[i] = entryHash(40 + i)
	}
	tree, err := BuildTree(leaves)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}

	proof, err := tree.GenerateProof(4)
	if err != nil {
		t.Fatalf("GenerateProof: %v", err)
	}

	data, err := proof.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	restored, err := ProofFromJSON(data)
	if err != nil {
		t.Fatalf("ProofFromJSON: %v", err)
	}

	leafHash, err := hex.DecodeString(restored.LeafHash)
	if err != nil {
		t.Fatalf("decoding leaf hash: %v", err)
	}
	rootHash, err := hex.DecodeString(restored.Root)
	if err != nil {
		t.Fatalf("decoding root: %v", err)
	}

	ok, err := VerifyProof(leafHash, restored, rootHash)
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if !ok {
		t.Error("proof deserialized from JSON did not verify")
	}

	pathOnly, err := proof.PathToJSON()
	if err != nil {
		t.Fatalf("PathToJSON: %v", err)
	}
	if len(pathOnly) == 0 {
		t.Error("PathToJSON produced empty output")
	}
}

func TestHashDataIsDeterministic(t *testing.T) {
	data := []byte("deterministic input")
	if !bytes.Equal(HashData(data), HashData(data)) {
		t.Error("HashData is not deterministic")
	}
	if len(HashData(data)) != leafSize {
		t.Errorf("HashData length = %d, want %d", len(HashData(data)), leafSize)
	}
	if HashDataHex(data) != hex.EncodeToString(HashData(data)) {
		t.Error("HashDataHex disagrees with hex.EncodeToString(HashData(...))")
	}
}

func TestCombineHashesIsOrderSensitive(t *testing.T) {
	h1, h2 := entryHash(50), entryHash(51)
	ab := CombineHashes(h1, h2)
	ba := CombineHashes(h2, h1)
	if len(ab) != leafSize {
		t.Errorf("combined length = %d, want %d", len(ab), leafSize)
	}
	if bytes.Equal(ab, ba) {
		t.Error("CombineHashes(a, b) should differ from CombineHashes(b, a)")
	}
}
