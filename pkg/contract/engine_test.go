package contract

import (
	"testing"
	"time"

	"github.com/proofmesh/govcore/pkg/crypto"
)

func pastTime() time.Time {
	return time.Now().UTC().Add(-24 * time.Hour)
}

func signFor(t *testing.T, privB64, contractID, contentHash, signerID, signerType string) string {
	t.Helper()
	sig, err := crypto.Sign(privB64, SigningMessage(contractID, contentHash, signerID, signerType))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return sig
}

func TestContractLifecycle(t *testing.T) {
	e := New(nil, nil)

	p1Pub, p1Priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}
	p2Pub, p2Priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key pair: %v", err)
	}

	c, err := e.Create(CreateRequest{
		Title:       "data sharing agreement",
		Description: "provider shares records with patient",
		Parties: []Party{
			{ID: "p1", Type: "provider"},
			{ID: "p2", Type: "patient"},
		},
	}, "p1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.State != StateDraft {
		t.Fatalf("expected DRAFT, got %s", c.State)
	}

	c, err = e.Propose(c.ID, ProposeRequest{ProposedTo: []string{"p1", "p2"}}, "p1")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if c.State != StateProposed || c.ProposedAt == nil {
		t.Fatalf("expected PROPOSED with proposed_at set, got %+v", c)
	}

	contentHash, err := ContentHash(c)
	if err != nil {
		t.Fatalf("content hash: %v", err)
	}

	sig1 := signFor(t, p1Priv, c.ID, contentHash, "p1", "provider")
	c, err = e.Sign(c.ID, SignRequest{SignerID: "p1", SignerType: "provider", PublicKeyB64: p1Pub, SignatureB64: sig1})
	if err != nil {
		t.Fatalf("sign p1: %v", err)
	}
	if c.State != StateProposed {
		t.Fatalf("expected PROPOSED after first signature, got %s", c.State)
	}
	if len(c.Signatures) != 1 {
		t.Fatalf("expected one signature, got %d", len(c.Signatures))
	}

	sig2 := signFor(t, p2Priv, c.ID, contentHash, "p2", "patient")
	c, err = e.Sign(c.ID, SignRequest{SignerID: "p2", SignerType: "patient", PublicKeyB64: p2Pub, SignatureB64: sig2})
	if err != nil {
		t.Fatalf("sign p2: %v", err)
	}
	if c.State != StateSigned || c.SignedAt == nil {
		t.Fatalf("expected SIGNED with signed_at set, got %+v", c)
	}

	c, err = e.Revoke(c.ID, RevokeRequest{Reason: "terms violated", RevokedBy: "p1"})
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if c.State != StateRevoked || c.RevokedAt == nil {
		t.Fatalf("expected REVOKED with revoked_at set, got %+v", c)
	}

	if _, err := e.Propose(c.ID, ProposeRequest{}, "p1"); err == nil {
		t.Fatalf("expected error proposing a revoked contract")
	}
	if _, err := e.Sign(c.ID, SignRequest{SignerID: "p1", SignerType: "provider", PublicKeyB64: p1Pub, SignatureB64: sig1}); err == nil {
		t.Fatalf("expected error signing a revoked contract")
	}
	if _, err := e.Revoke(c.ID, RevokeRequest{Reason: "again", RevokedBy: "p1"}); err == nil {
		t.Fatalf("expected error re-revoking an already-revoked contract")
	}
}

func TestSignRejectsDuplicateSigner(t *testing.T) {
	e := New(nil, nil)
	pub, priv, _ := crypto.GenerateKeyPair()

	c, _ := e.Create(CreateRequest{
		Title: "t", Description: "d",
		Parties: []Party{{ID: "p1", Type: "provider"}, {ID: "p2", Type: "patient"}},
	}, "p1")
	c, _ = e.Propose(c.ID, ProposeRequest{}, "p1")
	contentHash, _ := ContentHash(c)
	sig := signFor(t, priv, c.ID, contentHash, "p1", "provider")

	if _, err := e.Sign(c.ID, SignRequest{SignerID: "p1", SignerType: "provider", PublicKeyB64: pub, SignatureB64: sig}); err != nil {
		t.Fatalf("first sign: %v", err)
	}
	if _, err := e.Sign(c.ID, SignRequest{SignerID: "p1", SignerType: "provider", PublicKeyB64: pub, SignatureB64: sig}); err == nil {
		t.Fatalf("expected duplicate signer rejection")
	}
}

func TestSignRejectsInvalidSignature(t *testing.T) {
	e := New(nil, nil)
	pub, _, _ := crypto.GenerateKeyPair()
	_, wrongPriv, _ := crypto.GenerateKeyPair()

	c, _ := e.Create(CreateRequest{
		Title: "t", Description: "d",
		Parties: []Party{{ID: "p1", Type: "provider"}},
	}, "p1")
	c, _ = e.Propose(c.ID, ProposeRequest{}, "p1")
	contentHash, _ := ContentHash(c)
	badSig := signFor(t, wrongPriv, c.ID, contentHash, "p1", "provider")

	if _, err := e.Sign(c.ID, SignRequest{SignerID: "p1", SignerType: "provider", PublicKeyB64: pub, SignatureB64: badSig}); err == nil {
		t.Fatalf("expected signature verification failure")
	}
}

func TestExtraSignerNotInPartiesIsInertButPermitted(t *testing.T) {
	e := New(nil, nil)
	pub, priv, _ := crypto.GenerateKeyPair()
	extraPub, extraPriv, _ := crypto.GenerateKeyPair()

	c, _ := e.Create(CreateRequest{
		Title: "t", Description: "d",
		Parties: []Party{{ID: "p1", Type: "provider"}},
	}, "p1")
	c, _ = e.Propose(c.ID, ProposeRequest{}, "p1")
	contentHash, _ := ContentHash(c)

	extraSig := signFor(t, extraPriv, c.ID, contentHash, "observer", "witness")
	c, err := e.Sign(c.ID, SignRequest{SignerID: "observer", SignerType: "witness", PublicKeyB64: extraPub, SignatureB64: extraSig})
	if err != nil {
		t.Fatalf("expected extra signer to be permitted: %v", err)
	}
	if c.State != StateProposed {
		t.Fatalf("expected extra signer not to trigger SIGNED transition, got %s", c.State)
	}

	sig := signFor(t, priv, c.ID, contentHash, "p1", "provider")
	c, err = e.Sign(c.ID, SignRequest{SignerID: "p1", SignerType: "provider", PublicKeyB64: pub, SignatureB64: sig})
	if err != nil {
		t.Fatalf("sign p1: %v", err)
	}
	if c.State != StateSigned {
		t.Fatalf("expected SIGNED once the real party signs, got %s", c.State)
	}
}

func TestCleanupExpired(t *testing.T) {
	e := New(nil, nil)
	past := pastTime()
	c, _ := e.Create(CreateRequest{
		Title: "expiring", Description: "d",
		Parties:   []Party{{ID: "p1", Type: "provider"}},
		ExpiresAt: &past,
	}, "p1")

	n := e.CleanupExpired()
	if n != 1 {
		t.Fatalf("expected 1 contract marked expired, got %d", n)
	}
	got, _ := e.Get(c.ID)
	if got.State != StateExpired {
		t.Fatalf("expected EXPIRED, got %s", got.State)
	}
}

func TestStatistics(t *testing.T) {
	e := New(nil, nil)
	e.Create(CreateRequest{Title: "a", Description: "d", Parties: []Party{{ID: "p1"}}, HipaaEntities: []string{"clinic"}}, "p1")
	e.Create(CreateRequest{Title: "b", Description: "d", Parties: []Party{{ID: "p1"}}}, "p1")

	stats := e.Statistics()
	if stats.TotalContracts != 2 {
		t.Fatalf("expected 2 total contracts, got %d", stats.TotalContracts)
	}
	if stats.ByState[StateDraft] != 2 {
		t.Fatalf("expected 2 draft contracts, got %d", stats.ByState[StateDraft])
	}
	if stats.HipaaCompliant != 1 {
		t.Fatalf("expected 1 hipaa-compliant contract, got %d", stats.HipaaCompliant)
	}
}
