package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/proofmesh/govcore/pkg/contract"
)

// ContractRepository mirrors the contract engine's in-memory store to
// Postgres so contracts can be queried with SQL alongside the rest of
// the governance record.
type ContractRepository struct {
	client *Client
}

// NewContractRepository creates a new contract repository.
func NewContractRepository(client *Client) *ContractRepository {
	return &ContractRepository{client: client}
}

// Upsert writes the full current state of c, overwriting any prior row.
func (r *ContractRepository) Upsert(ctx context.Context, c *contract.Contract) error {
	parties, err := json.Marshal(c.Parties)
	if err != nil {
		return fmt.Errorf("marshal parties: %w", err)
	}
	clauses, err := json.Marshal(c.Clauses)
	if err != nil {
		return fmt.Errorf("marshal clauses: %w", err)
	}
	signatures, err := json.Marshal(c.Signatures)
	if err != nil {
		return fmt.Errorf("marshal signatures: %w", err)
	}
	hipaaEntities, err := json.Marshal(c.HipaaEntities)
	if err != nil {
		return fmt.Errorf("marshal hipaa entities: %w", err)
	}
	metadata, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO contracts (
			id, title, description, state, version, created_by,
			parties, clauses, signatures, hipaa_entities, metadata,
			created_at, proposed_at, signed_at, revoked_at, expires_at, last_modified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			state = EXCLUDED.state,
			version = EXCLUDED.version,
			parties = EXCLUDED.parties,
			clauses = EXCLUDED.clauses,
			signatures = EXCLUDED.signatures,
			hipaa_entities = EXCLUDED.hipaa_entities,
			metadata = EXCLUDED.metadata,
			proposed_at = EXCLUDED.proposed_at,
			signed_at = EXCLUDED.signed_at,
			revoked_at = EXCLUDED.revoked_at,
			expires_at = EXCLUDED.expires_at,
			last_modified = EXCLUDED.last_modified`

	_, err = r.client.ExecContext(ctx, query,
		c.ID, c.Title, c.Description, c.State, c.Version, c.CreatedBy,
		parties, clauses, signatures, hipaaEntities, metadata,
		c.CreatedAt, c.ProposedAt, c.SignedAt, c.RevokedAt, c.ExpiresAt, c.LastModified,
	)
	if err != nil {
		return fmt.Errorf("upsert contract %s: %w", c.ID, err)
	}
	return nil
}

// Get loads a contract mirror row by id.
func (r *ContractRepository) Get(ctx context.Context, id string) (*contract.Contract, error) {
	query := `
		SELECT id, title, description, state, version, created_by,
		       parties, clauses, signatures, hipaa_entities, metadata,
		       created_at, proposed_at, signed_at, revoked_at, expires_at, last_modified
		FROM contracts WHERE id = $1`

	row := r.client.QueryRowContext(ctx, query, id)
	c, err := scanContract(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get contract %s: %w", id, err)
	}
	return c, nil
}

// ListByState returns every contract mirror row with the given state.
func (r *ContractRepository) ListByState(ctx context.Context, state contract.State) ([]*contract.Contract, error) {
	query := `
		SELECT id, title, description, state, version, created_by,
		       parties, clauses, signatures, hipaa_entities, metadata,
		       created_at, proposed_at, signed_at, revoked_at, expires_at, last_modified
		FROM contracts WHERE state = $1 ORDER BY created_at`

	rows, err := r.client.QueryContext(ctx, query, state)
	if err != nil {
		return nil, fmt.Errorf("list contracts by state %s: %w", state, err)
	}
	defer rows.Close()

	var out []*contract.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contract row: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContract(row rowScanner) (*contract.Contract, error) {
	var c contract.Contract
	var parties, clauses, signatures, hipaaEntities, metadata []byte

	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.State, &c.Version, &c.CreatedBy,
		&parties, &clauses, &signatures, &hipaaEntities, &metadata,
		&c.CreatedAt, &c.ProposedAt, &c.SignedAt, &c.RevokedAt, &c.ExpiresAt, &c.LastModified,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(parties, &c.Parties); err != nil {
		return nil, fmt.Errorf("unmarshal parties: %w", err)
	}
	if err := json.Unmarshal(clauses, &c.Clauses); err != nil {
		return nil, fmt.Errorf("unmarshal clauses: %w", err)
	}
	if err := json.Unmarshal(signatures, &c.Signatures); err != nil {
		return nil, fmt.Errorf("unmarshal signatures: %w", err)
	}
	if err := json.Unmarshal(hipaaEntities, &c.HipaaEntities); err != nil {
		return nil, fmt.Errorf("unmarshal hipaa entities: %w", err)
	}
	if err := json.Unmarshal(metadata, &c.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &c, nil
}
