// Package kvdb wraps a CometBFT-DB (goleveldb-backed) database so it can
// serve as the ledger store's durable KV backend, as an alternative to
// the package default in-memory store for single-node deployments.
package kvdb

import (
	dbm "github.com/cometbft/cometbft-db"
)

// Adapter wraps a CometBFT dbm.DB and exposes the ledger.KV interface.
type Adapter struct {
	db dbm.DB
}

// New creates a new Adapter for the given underlying DB.
func New(db dbm.DB) *Adapter {
	return &Adapter{db: db}
}

// OpenGoLevelDB opens (or creates) a goleveldb database at dir/name.
func OpenGoLevelDB(name, dir string) (*Adapter, error) {
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Get implements ledger.KV.
func (a *Adapter) Get(key []byte) ([]byte, error) {
	if a.db == nil {
		return nil, nil
	}
	v, err := a.db.Get(key)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Set implements ledger.KV, using SetSync for durable writes.
func (a *Adapter) Set(key, value []byte) error {
	if a.db == nil {
		return nil
	}
	return a.db.SetSync(key, value)
}

// Close closes the underlying database.
func (a *Adapter) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
