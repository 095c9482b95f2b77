// Package database provides sentinel errors for repository operations.
package database

import "errors"

// Sentinel errors for database operations.
var (
	// ErrNotFound is returned when a requested entity is not found in the database.
	ErrNotFound = errors.New("entity not found")

	// ErrContractNotFound is returned when a contract record is not found.
	ErrContractNotFound = errors.New("contract not found")

	// ErrLedgerEntryNotFound is returned when a ledger entry is not found.
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")

	// ErrLedgerBlockNotFound is returned when a ledger block is not found.
	ErrLedgerBlockNotFound = errors.New("ledger block not found")
)
