package contract

import (
	"github.com/proofmesh/govcore/pkg/crypto"
)

// ContentHash computes the SHA-256 content_hash over the contract's
// signable fields, canonicalized with sorted keys so it is stable
// regardless of in-memory field order.
func ContentHash(c *Contract) (string, error) {
	content := map[string]interface{}{
		"id":          c.ID,
		"title":       c.Title,
		"description": c.Description,
		"clauses":     c.Clauses,
		"parties":     c.Parties,
		"version":     c.Version,
	}
	return crypto.HashContent(content)
}

// SigningMessage builds the domain-separated message a signer signs:
// "{id}:{content_hash}:{signer_id}:{signer_type}".
func SigningMessage(contractID, contentHash, signerID, signerType string) []byte {
	return []byte(contractID + ":" + contentHash + ":" + signerID + ":" + signerType)
}
