package contract

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/proofmesh/govcore/pkg/crypto"
)

// Store is the storage contract the engine needs: a keyed, replaceable
// record of every contract. The in-process implementation below
// satisfies it directly; a Postgres-backed implementation in
// pkg/database satisfies it by mirroring rows into the same shape.
type Store interface {
	Get(id string) (*Contract, bool)
	Put(c *Contract)
	All() []*Contract
}

// MemStore is the default in-memory Store.
type MemStore struct {
	mu        sync.RWMutex
	contracts map[string]*Contract
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{contracts: make(map[string]*Contract)}
}

func (s *MemStore) Get(id string) (*Contract, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contracts[id]
	return c, ok
}

func (s *MemStore) Put(c *Contract) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contracts[c.ID] = c
}

func (s *MemStore) All() []*Contract {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, c)
	}
	return out
}

// Engine manages contract lifecycle and cryptographic operations.
// Concurrent signings of the same contract serialize through a
// per-contract mutex (a sync.Map of *sync.Mutex, keyed by contract id)
// so unrelated contracts never block each other.
type Engine struct {
	store  Store
	locks  sync.Map // contract id -> *sync.Mutex
	logger *log.Logger
}

// New creates an Engine over the given Store. A nil store creates a
// fresh in-memory one.
func New(store Store, logger *log.Logger) *Engine {
	if store == nil {
		store = NewMemStore()
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[Contract] ", log.LstdFlags)
	}
	return &Engine{store: store, logger: logger}
}

func (e *Engine) lockFor(id string) *sync.Mutex {
	actual, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// Create builds a new DRAFT contract.
func (e *Engine) Create(req CreateRequest, createdBy string) (*Contract, error) {
	parties := make([]Party, len(req.Parties))
	seen := make(map[string]bool, len(req.Parties))
	for i, party := range req.Parties {
		if party.ID == "" {
			party.ID = newID()
		}
		if seen[party.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePartyID, party.ID)
		}
		seen[party.ID] = true
		parties[i] = party
	}

	clauses := make([]Clause, len(req.Clauses))
	for i, cl := range req.Clauses {
		if cl.ID == "" {
			cl.ID = newID()
		}
		if cl.Type == "" {
			cl.Type = "general"
		}
		clauses[i] = cl
	}

	version := req.Version
	if version == "" {
		version = "1.0.0"
	}

	now := time.Now().UTC()
	c := &Contract{
		ID:            newID(),
		Title:         req.Title,
		Description:   req.Description,
		Clauses:       clauses,
		Parties:       parties,
		State:         StateDraft,
		CreatedAt:     now,
		ExpiresAt:     req.ExpiresAt,
		Signatures:    []Signature{},
		HipaaEntities: req.HipaaEntities,
		Metadata:      req.Metadata,
		Version:       version,
		CreatedBy:     createdBy,
		LastModified:  now,
	}
	e.store.Put(c)
	e.logger.Printf("created contract %s by %s", c.ID, createdBy)
	return c, nil
}

// Get retrieves a contract by id.
func (e *Engine) Get(id string) (*Contract, error) {
	c, ok := e.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// List returns contracts matching the given optional filters.
func (e *Engine) List(state *State, createdBy *string) []*Contract {
	var out []*Contract
	for _, c := range e.store.All() {
		if state != nil && c.State != *state {
			continue
		}
		if createdBy != nil && c.CreatedBy != *createdBy {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ByParty returns every contract that names partyID among its parties.
func (e *Engine) ByParty(partyID string) []*Contract {
	var out []*Contract
	for _, c := range e.store.All() {
		for _, p := range c.Parties {
			if p.ID == partyID {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Propose moves a DRAFT contract to PROPOSED, stamping proposal metadata.
func (e *Engine) Propose(id string, req ProposeRequest, proposedBy string) (*Contract, error) {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	c, ok := e.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if !canTransition(c.State, StateProposed) {
		return nil, fmt.Errorf("%w: cannot propose contract in state %s", ErrInvalidTransition, c.State)
	}

	now := time.Now().UTC()
	c.State = StateProposed
	c.ProposedAt = &now
	c.LastModified = now
	if c.Metadata == nil {
		c.Metadata = map[string]interface{}{}
	}
	c.Metadata["proposal"] = map[string]interface{}{
		"proposed_to": req.ProposedTo,
		"message":     req.Message,
		"proposed_by": proposedBy,
		"timestamp":   now.Format(time.RFC3339),
	}
	e.store.Put(c)
	e.logger.Printf("proposed contract %s by %s", id, proposedBy)
	return c, nil
}

// Sign verifies and appends a signature, auto-transitioning PROPOSED to
// SIGNED once every party is covered.
func (e *Engine) Sign(id string, req SignRequest) (*Contract, error) {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	c, ok := e.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if c.State != StateProposed && c.State != StateSigned {
		return nil, fmt.Errorf("%w: cannot sign contract in state %s", ErrInvalidTransition, c.State)
	}

	for _, sig := range c.Signatures {
		if sig.SignerID == req.SignerID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSigner, req.SignerID)
		}
	}

	contentHash, err := ContentHash(c)
	if err != nil {
		return nil, fmt.Errorf("compute content hash: %w", err)
	}
	message := SigningMessage(c.ID, contentHash, req.SignerID, req.SignerType)
	if !crypto.Verify(req.PublicKeyB64, message, req.SignatureB64) {
		return nil, ErrInvalidSignature
	}

	now := time.Now().UTC()
	c.Signatures = append(c.Signatures, Signature{
		SignerID:     req.SignerID,
		SignerType:   req.SignerType,
		SignatureB64: req.SignatureB64,
		PublicKeyB64: req.PublicKeyB64,
		Timestamp:    now,
		Meta:         req.Metadata,
	})

	if c.State == StateProposed && c.IsFullySigned() {
		c.State = StateSigned
		c.SignedAt = &now
	}
	c.LastModified = now
	e.store.Put(c)
	e.logger.Printf("signed contract %s by %s", id, req.SignerID)
	return c, nil
}

// Revoke moves a contract to REVOKED, recording revocation metadata.
func (e *Engine) Revoke(id string, req RevokeRequest) (*Contract, error) {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	c, ok := e.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if c.State == StateRevoked {
		return nil, ErrAlreadyRevoked
	}
	if c.State == StateExpired {
		return nil, ErrAlreadyExpired
	}
	if !canTransition(c.State, StateRevoked) {
		return nil, fmt.Errorf("%w: cannot revoke contract in state %s", ErrInvalidTransition, c.State)
	}

	now := time.Now().UTC()
	c.State = StateRevoked
	c.RevokedAt = &now
	c.LastModified = now
	if c.Metadata == nil {
		c.Metadata = map[string]interface{}{}
	}
	c.Metadata["revocation"] = map[string]interface{}{
		"reason":     req.Reason,
		"revoked_by": req.RevokedBy,
		"timestamp":  now.Format(time.RFC3339),
	}
	e.store.Put(c)
	e.logger.Printf("revoked contract %s by %s: %s", id, req.RevokedBy, req.Reason)
	return c, nil
}

// CleanupExpired marks every non-terminal contract past its expiry as
// EXPIRED, returning the count changed.
func (e *Engine) CleanupExpired() int {
	now := time.Now().UTC()
	count := 0
	for _, c := range e.store.All() {
		if c.ExpiresAt == nil || !c.ExpiresAt.Before(now) {
			continue
		}
		if isTerminal(c.State) {
			continue
		}
		lock := e.lockFor(c.ID)
		lock.Lock()
		fresh, ok := e.store.Get(c.ID)
		if ok && fresh.ExpiresAt != nil && fresh.ExpiresAt.Before(now) && !isTerminal(fresh.State) {
			fresh.State = StateExpired
			fresh.LastModified = now
			e.store.Put(fresh)
			count++
		}
		lock.Unlock()
	}
	if count > 0 {
		e.logger.Printf("marked %d contracts as expired", count)
	}
	return count
}

// Statistics summarizes the store's current contents.
func (e *Engine) Statistics() Statistics {
	all := e.store.All()
	stats := Statistics{
		TotalContracts: len(all),
		ByState:        map[State]int{},
	}
	for _, c := range all {
		stats.ByState[c.State]++
		if len(c.HipaaEntities) > 0 {
			stats.HipaaCompliant++
		}
		if c.State == StateSigned {
			stats.SignedContracts++
		}
		if c.State == StateExpired {
			stats.ExpiredContracts++
		}
	}
	return stats
}
