// Package database repositories - convenience wrapper for all repositories.
package database

// Repositories holds all repository instances backed by a single Client.
type Repositories struct {
	Contracts *ContractRepository
	Ledger    *LedgerRepository
}

// NewRepositories creates all repositories sharing the given client.
func NewRepositories(client *Client) *Repositories {
	return &Repositories{
		Contracts: NewContractRepository(client),
		Ledger:    NewLedgerRepository(client),
	}
}
