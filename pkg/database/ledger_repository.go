package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/proofmesh/govcore/pkg/ledger"
)

// LedgerRepository mirrors the ledger store's entries and blocks into
// Postgres for SQL-queryable audit access, alongside the KV store that
// serves the hot append/verify path.
type LedgerRepository struct {
	client *Client
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(client *Client) *LedgerRepository {
	return &LedgerRepository{client: client}
}

// InsertBlock upserts a ledger block's current state. The row must exist
// before any entry that references it is inserted.
func (r *LedgerRepository) InsertBlock(ctx context.Context, b *ledger.Block) error {
	query := `
		INSERT INTO ledger_blocks (
			block_number, first_sequence, last_sequence, entry_count,
			merkle_root, sealed_at, is_verified
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (block_number) DO UPDATE SET
			last_sequence = EXCLUDED.last_sequence,
			entry_count = EXCLUDED.entry_count,
			merkle_root = EXCLUDED.merkle_root,
			sealed_at = EXCLUDED.sealed_at,
			is_verified = EXCLUDED.is_verified`

	_, err := r.client.ExecContext(ctx, query,
		b.BlockNumber, b.FirstSeq, b.LastSeq, b.EntryCount, b.MerkleRoot, b.SealedAt, b.IsVerified,
	)
	if err != nil {
		return fmt.Errorf("upsert ledger block %d: %w", b.BlockNumber, err)
	}
	return nil
}

// InsertEntry records a newly appended ledger entry.
func (r *LedgerRepository) InsertEntry(ctx context.Context, e *ledger.Entry) error {
	metadata, err := json.Marshal(e.Event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal entry metadata: %w", err)
	}

	query := `
		INSERT INTO ledger_entries (
			sequence_number, event_type, actor_id, resource_id, action,
			metadata, event_timestamp, data_hash, previous_hash, entry_hash,
			block_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (sequence_number) DO NOTHING`

	_, err = r.client.ExecContext(ctx, query,
		e.SequenceNumber, e.Event.EventType, e.Event.ActorID, e.Event.ResourceID, e.Event.Action,
		metadata, e.Event.Timestamp, e.Event.DataHash, e.PreviousHash, e.EntryHash,
		e.BlockID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry %d: %w", e.SequenceNumber, err)
	}
	return nil
}

// GetEntry loads a ledger entry mirror row by sequence number.
func (r *LedgerRepository) GetEntry(ctx context.Context, seq uint64) (*ledger.Entry, error) {
	query := `
		SELECT sequence_number, event_type, actor_id, resource_id, action,
		       metadata, event_timestamp, data_hash, previous_hash, entry_hash,
		       block_id, created_at
		FROM ledger_entries WHERE sequence_number = $1`

	row := r.client.QueryRowContext(ctx, query, seq)
	var e ledger.Entry
	var metadata []byte
	err := row.Scan(
		&e.SequenceNumber, &e.Event.EventType, &e.Event.ActorID, &e.Event.ResourceID, &e.Event.Action,
		&metadata, &e.Event.Timestamp, &e.Event.DataHash, &e.PreviousHash, &e.EntryHash,
		&e.BlockID, &e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get ledger entry %d: %w", seq, err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &e.Event.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal entry metadata: %w", err)
		}
	}
	return &e, nil
}

// CountEntries returns the number of mirrored ledger entries, for
// reconciliation checks against the KV-backed store's own statistics.
func (r *LedgerRepository) CountEntries(ctx context.Context) (uint64, error) {
	var count uint64
	err := r.client.QueryRowContext(ctx, `SELECT count(*) FROM ledger_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count ledger entries: %w", err)
	}
	return count, nil
}
