// Package contract implements the contract engine: versioned,
// state-machine-governed agreements between parties, signed with
// Ed25519 over a domain-separated message and content-hashed for
// tamper evidence.
package contract

import (
	"time"

	"github.com/google/uuid"
)

// State is a contract's lifecycle stage.
type State string

const (
	StateDraft    State = "draft"
	StateProposed State = "proposed"
	StateSigned   State = "signed"
	StateRevoked  State = "revoked"
	StateExpired  State = "expired"
)

// Party is one signatory to a contract.
type Party struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Type string                 `json:"type"`
	Meta map[string]interface{} `json:"metadata,omitempty"`
}

// Clause is one structured term of a contract.
type Clause struct {
	ID      string                 `json:"id"`
	Title   string                 `json:"title"`
	Content string                 `json:"content"`
	Type    string                 `json:"type"`
	Meta    map[string]interface{} `json:"metadata,omitempty"`
}

// Signature is one party's cryptographic assent to a contract's
// content_hash at the time of signing.
type Signature struct {
	SignerID     string                 `json:"signer_id"`
	SignerType   string                 `json:"signer_type"`
	SignatureB64 string                 `json:"signature"`
	PublicKeyB64 string                 `json:"public_key"`
	Timestamp    time.Time              `json:"timestamp"`
	Meta         map[string]interface{} `json:"metadata,omitempty"`
}

// Contract is a versioned, multi-party agreement.
type Contract struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Clauses       []Clause               `json:"clauses"`
	Parties       []Party                `json:"parties"`
	State         State                  `json:"state"`
	CreatedAt     time.Time              `json:"created_at"`
	ProposedAt    *time.Time             `json:"proposed_at,omitempty"`
	SignedAt      *time.Time             `json:"signed_at,omitempty"`
	RevokedAt     *time.Time             `json:"revoked_at,omitempty"`
	ExpiresAt     *time.Time             `json:"expires_at,omitempty"`
	Signatures    []Signature            `json:"signatures"`
	HipaaEntities []string               `json:"hipaa_entities,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Version       string                 `json:"version"`
	CreatedBy     string                 `json:"created_by"`
	LastModified  time.Time              `json:"last_modified"`
}

// CreateRequest describes a new contract.
type CreateRequest struct {
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Clauses       []Clause               `json:"clauses"`
	Parties       []Party                `json:"parties"`
	HipaaEntities []string               `json:"hipaa_entities,omitempty"`
	ExpiresAt     *time.Time             `json:"expires_at,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	Version       string                 `json:"version,omitempty"`
}

// ProposeRequest carries proposal metadata.
type ProposeRequest struct {
	ProposedTo []string `json:"proposed_to,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// SignRequest carries a signer's submitted signature.
type SignRequest struct {
	SignerID     string                 `json:"signer_id"`
	SignerType   string                 `json:"signer_type"`
	PublicKeyB64 string                 `json:"public_key"`
	SignatureB64 string                 `json:"signature"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// RevokeRequest carries revocation metadata.
type RevokeRequest struct {
	Reason    string                 `json:"reason,omitempty"`
	RevokedBy string                 `json:"revoked_by,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Statistics summarizes the contract store.
type Statistics struct {
	TotalContracts   int           `json:"total_contracts"`
	ByState          map[State]int `json:"by_state"`
	HipaaCompliant   int           `json:"hipaa_compliant"`
	SignedContracts  int           `json:"signed_contracts"`
	ExpiredContracts int           `json:"expired_contracts"`
}

// newID mints a fresh UUID string, used for contract ids and for
// parties/clauses left unset by the caller.
func newID() string {
	return uuid.New().String()
}

// IsFullySigned reports whether every party.ID is covered by a signature.
func (c *Contract) IsFullySigned() bool {
	signed := make(map[string]bool, len(c.Signatures))
	for _, sig := range c.Signatures {
		signed[sig.SignerID] = true
	}
	for _, party := range c.Parties {
		if !signed[party.ID] {
			return false
		}
	}
	return true
}

// UnsignedParties returns the parties not yet covered by a signature.
func (c *Contract) UnsignedParties() []Party {
	signed := make(map[string]bool, len(c.Signatures))
	for _, sig := range c.Signatures {
		signed[sig.SignerID] = true
	}
	var out []Party
	for _, party := range c.Parties {
		if !signed[party.ID] {
			out = append(out, party)
		}
	}
	return out
}
