// Package ledger implements the append-only, hash-chained, block-batched
// provenance ledger. Entries are appended one at a time under an
// exclusive critical section spanning sequence allocation, previous-hash
// lookup, entry insertion, and (if the block fills) sealing, so that a
// writer never leaves a sequence gap or a partially written entry.
package ledger

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/proofmesh/govcore/pkg/crypto"
	"github.com/proofmesh/govcore/pkg/merkle"
)

// KV is the minimal key/value storage interface the ledger store is
// built on. Implementations: an in-memory map for tests and simple
// single-node defaults, and a CometBFT-DB-backed adapter for durable
// on-disk storage (see pkg/kvdb).
type KV interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
}

// Store provides the ledger's append/read/verify operations over a KV.
//
// CONCURRENCY: Store serializes all append operations internally with a
// mutex spanning sequence allocation through (optional) block sealing,
// per the single-writer model described in the package doc. Reader
// methods (GetEntry, GetBlock, VerifyChainIntegrity, ...) take a
// read-shared path and may run concurrently with each other, but still
// serialize against an in-flight append since the underlying KV gives no
// snapshot isolation.
type Store struct {
	mu        sync.RWMutex
	kv        KV
	blockSize uint64
}

// New creates a Store backed by kv, sealing blocks once they reach
// blockSize entries (spec default: 100).
func New(kv KV, blockSize uint64) *Store {
	if blockSize == 0 {
		blockSize = 100
	}
	return &Store{kv: kv, blockSize: blockSize}
}

// ====== KV key layout ======

var (
	keyLastSeq     = []byte("ledger:last_seq")
	keyCurrentBlock = []byte("ledger:current_block")
	keyEntryPrefix = []byte("ledger:entry:")
	keyBlockPrefix = []byte("ledger:block:")
)

func entryKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return append(append([]byte{}, keyEntryPrefix...), b...)
}

func blockKey(num uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, num)
	return append(append([]byte{}, keyBlockPrefix...), b...)
}

func (s *Store) getUint64(key []byte) (uint64, error) {
	b, err := s.kv.Get(key)
	if err != nil {
		return 0, err
	}
	if len(b) == 0 {
		return 0, nil
	}
	if len(b) != 8 {
		return 0, fmt.Errorf("corrupt counter at key %s", key)
	}
	return binary.BigEndian.Uint64(b), nil
}

func (s *Store) setUint64(key []byte, v uint64) error {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return s.kv.Set(key, b)
}

func (s *Store) getEntry(seq uint64) (*Entry, error) {
	b, err := s.kv.Get(entryKey(seq))
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, ErrEntryNotFound
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("unmarshal entry %d: %w", seq, err)
	}
	return &e, nil
}

func (s *Store) putEntry(e *Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry %d: %w", e.SequenceNumber, err)
	}
	return s.kv.Set(entryKey(e.SequenceNumber), b)
}

func (s *Store) getBlock(num uint64) (*Block, error) {
	b, err := s.kv.Get(blockKey(num))
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, ErrBlockNotFound
	}
	var blk Block
	if err := json.Unmarshal(b, &blk); err != nil {
		return nil, fmt.Errorf("unmarshal block %d: %w", num, err)
	}
	return &blk, nil
}

func (s *Store) putBlock(b *Block) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("marshal block %d: %w", b.BlockNumber, err)
	}
	return s.kv.Set(blockKey(b.BlockNumber), raw)
}

// AppendEvent assigns the next sequence number to event, links it to the
// previous entry's hash, places it in the current (or a freshly opened)
// block, and seals that block if it has reached blockSize. The whole
// operation runs under the store's single-writer lock so a crash between
// steps can never be observed as a partial write by another goroutine.
func (s *Store) AppendEvent(event Event) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lastSeq, err := s.getUint64(keyLastSeq)
	if err != nil {
		return nil, fmt.Errorf("read last sequence: %w", err)
	}
	nextSeq := lastSeq + 1

	var previousHash string
	if lastSeq > 0 {
		prev, err := s.getEntry(lastSeq)
		if err != nil {
			return nil, fmt.Errorf("read previous entry %d: %w", lastSeq, err)
		}
		previousHash = prev.EntryHash
	}

	currentBlockNum, err := s.getUint64(keyCurrentBlock)
	if err != nil {
		return nil, fmt.Errorf("read current block: %w", err)
	}

	var block *Block
	if currentBlockNum == 0 {
		currentBlockNum = 1
		block = &Block{BlockNumber: 1, FirstSeq: nextSeq}
	} else {
		block, err = s.getBlock(currentBlockNum)
		if err != nil {
			return nil, fmt.Errorf("read current block %d: %w", currentBlockNum, err)
		}
		if block.Sealed() {
			currentBlockNum++
			block = &Block{BlockNumber: currentBlockNum, FirstSeq: nextSeq}
		}
	}

	entry := &Entry{
		SequenceNumber: nextSeq,
		Event:          event,
		PreviousHash:   previousHash,
		BlockID:        block.BlockNumber,
		CreatedAt:      time.Now().UTC(),
	}
	hash, err := crypto.HashContent(entry.hashable())
	if err != nil {
		return nil, fmt.Errorf("hash entry %d: %w", nextSeq, err)
	}
	entry.EntryHash = hash

	if err := s.putEntry(entry); err != nil {
		return nil, err
	}

	block.LastSeq = nextSeq
	block.EntryCount++
	if err := s.putBlock(block); err != nil {
		return nil, err
	}

	if block.EntryCount >= s.blockSize {
		if err := s.sealBlockLocked(block); err != nil {
			return nil, fmt.Errorf("seal block %d: %w", block.BlockNumber, err)
		}
	}

	if err := s.setUint64(keyCurrentBlock, currentBlockNum); err != nil {
		return nil, err
	}
	if err := s.setUint64(keyLastSeq, nextSeq); err != nil {
		return nil, err
	}

	return entry, nil
}

// sealBlockLocked computes and fixes a block's Merkle root. Caller must
// hold s.mu. Re-sealing an already-sealed block is a no-op.
func (s *Store) sealBlockLocked(block *Block) error {
	if block.Sealed() {
		return nil
	}
	if block.EntryCount == 0 {
		return nil
	}

	leaves := make([][]byte, 0, block.EntryCount)
	for seq := block.FirstSeq; seq <= block.LastSeq; seq++ {
		e, err := s.getEntry(seq)
		if err != nil {
			return fmt.Errorf("read entry %d for sealing: %w", seq, err)
		}
		leafBytes, err := hexDecode(e.EntryHash)
		if err != nil {
			return fmt.Errorf("decode entry hash %d: %w", seq, err)
		}
		leaves = append(leaves, leafBytes)
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return fmt.Errorf("build merkle tree: %w", err)
	}

	now := time.Now().UTC()
	block.MerkleRoot = tree.RootHex()
	block.SealedAt = &now
	block.IsVerified = true

	return s.putBlock(block)
}

// SealCurrentBlock manually seals the open block. Idempotent.
func (s *Store) SealCurrentBlock() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	num, err := s.getUint64(keyCurrentBlock)
	if err != nil {
		return err
	}
	if num == 0 {
		return nil
	}
	block, err := s.getBlock(num)
	if err != nil {
		return err
	}
	return s.sealBlockLocked(block)
}

// GetEntry returns the entry at the given sequence number.
func (s *Store) GetEntry(seq uint64) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEntry(seq)
}

// GetBlock returns block metadata for the given block number.
func (s *Store) GetBlock(num uint64) (*Block, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBlock(num)
}

// GetBlockEntries returns every entry belonging to block num, in
// sequence order.
func (s *Store) GetBlockEntries(num uint64) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, err := s.getBlock(num)
	if err != nil {
		return nil, err
	}
	entries := make([]*Entry, 0, block.EntryCount)
	for seq := block.FirstSeq; seq <= block.LastSeq; seq++ {
		e, err := s.getEntry(seq)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// VerifyChainIntegrity recomputes each entry's hash in [start, end] and
// checks the previous_hash linkage, returning false at the first
// mismatch. end=0 means "through the last written entry".
func (s *Store) VerifyChainIntegrity(start, end uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if start == 0 {
		start = 1
	}
	if end == 0 {
		last, err := s.getUint64(keyLastSeq)
		if err != nil {
			return false, err
		}
		end = last
	}

	var prevHash string
	if start > 1 {
		prev, err := s.getEntry(start - 1)
		if err != nil {
			return false, err
		}
		prevHash = prev.EntryHash
	}

	for seq := start; seq <= end; seq++ {
		entry, err := s.getEntry(seq)
		if err != nil {
			return false, err
		}
		if entry.PreviousHash != prevHash {
			return false, nil
		}
		recomputed, err := crypto.HashContent(entry.hashable())
		if err != nil {
			return false, err
		}
		if recomputed != entry.EntryHash {
			return false, nil
		}
		prevHash = entry.EntryHash
	}
	return true, nil
}

// VerifyBlockIntegrity verifies every entry in block num, then recomputes
// the Merkle root over their entry hashes and compares it to the block's
// recorded root.
func (s *Store) VerifyBlockIntegrity(num uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, err := s.getBlock(num)
	if err != nil {
		return false, err
	}
	if !block.Sealed() {
		return false, nil
	}

	leaves := make([][]byte, 0, block.EntryCount)
	for seq := block.FirstSeq; seq <= block.LastSeq; seq++ {
		entry, err := s.getEntry(seq)
		if err != nil {
			return false, err
		}
		recomputed, err := crypto.HashContent(entry.hashable())
		if err != nil {
			return false, err
		}
		if recomputed != entry.EntryHash {
			return false, nil
		}
		leafBytes, err := hexDecode(entry.EntryHash)
		if err != nil {
			return false, err
		}
		leaves = append(leaves, leafBytes)
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return false, err
	}
	return tree.RootHex() == block.MerkleRoot, nil
}

// GetLedgerStatistics returns current totals and sealed/unsealed counts.
func (s *Store) GetLedgerStatistics() (*Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lastSeq, err := s.getUint64(keyLastSeq)
	if err != nil {
		return nil, err
	}
	currentBlockNum, err := s.getUint64(keyCurrentBlock)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{TotalEntries: lastSeq, CurrentBlock: currentBlockNum}
	for num := uint64(1); num <= currentBlockNum; num++ {
		block, err := s.getBlock(num)
		if err != nil {
			return nil, err
		}
		stats.TotalBlocks++
		if block.Sealed() {
			stats.SealedBlocks++
		} else {
			stats.UnsealedBlocks++
		}
	}
	return stats, nil
}

// BuildProof returns a Merkle inclusion proof for the entry at seq, which
// must belong to a sealed block.
func (s *Store) BuildProof(seq uint64) (*merkle.InclusionProof, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, err := s.getEntry(seq)
	if err != nil {
		return nil, err
	}
	block, err := s.getBlock(entry.BlockID)
	if err != nil {
		return nil, err
	}
	if !block.Sealed() {
		return nil, fmt.Errorf("block %d not sealed", block.BlockNumber)
	}

	leaves := make([][]byte, 0, block.EntryCount)
	var leafIndex int
	for i, seqN := 0, block.FirstSeq; seqN <= block.LastSeq; i, seqN = i+1, seqN+1 {
		e, err := s.getEntry(seqN)
		if err != nil {
			return nil, err
		}
		b, err := hexDecode(e.EntryHash)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, b)
		if seqN == seq {
			leafIndex = i
		}
	}

	tree, err := merkle.BuildTree(leaves)
	if err != nil {
		return nil, err
	}
	return tree.GenerateProof(leafIndex)
}

// BlockSnapshotFor returns the minimal block summary handed to an
// external ledger adapter for anchoring.
func (s *Store) BlockSnapshotFor(num uint64) (*BlockSnapshot, error) {
	block, err := s.GetBlock(num)
	if err != nil {
		return nil, err
	}
	entries, err := s.GetBlockEntries(num)
	if err != nil {
		return nil, err
	}
	hashes := make([]string, len(entries))
	for i, e := range entries {
		hashes[i] = e.EntryHash
	}
	return &BlockSnapshot{
		BlockNumber: block.BlockNumber,
		MerkleRoot:  block.MerkleRoot,
		EntryCount:  block.EntryCount,
		Entries:     hashes,
	}, nil
}

func hexDecode(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
