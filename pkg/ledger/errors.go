package ledger

import "errors"

// Sentinel errors for ledger operations.
var (
	ErrEntryNotFound  = errors.New("ledger entry not found")
	ErrBlockNotFound  = errors.New("ledger block not found")
	ErrSequenceGap    = errors.New("ledger sequence gap detected")
	ErrDeadlineExceeded = errors.New("ledger operation deadline exceeded")
)
