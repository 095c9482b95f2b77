package contract

import "errors"

var (
	ErrNotFound          = errors.New("contract: not found")
	ErrInvalidTransition = errors.New("contract: invalid state transition")
	ErrDuplicateSigner   = errors.New("contract: signer has already signed")
	ErrInvalidSignature  = errors.New("contract: signature verification failed")
	ErrDuplicatePartyID  = errors.New("contract: duplicate party id")
	ErrAlreadyRevoked    = errors.New("contract: already revoked")
	ErrAlreadyExpired    = errors.New("contract: cannot revoke expired contract")
)
