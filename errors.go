package veilshelf

import (
	"errors"
	"fmt"
)

// Protocol error taxonomy. Stores, usecases, gateways and the client all match
// on these with errors.Is; no failure kind is ever collapsed into another.
var (
	// ErrDuplicateID: a record with this id already exists. Creation races
	// resolve to exactly one winner; every loser gets this.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrInvalidCiphertext: the handle's proof of well-formedness does not
	// verify against this ledger's context and the claimed creator.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrAlreadyDisclosed: the record's value was committed before. Not
	// retryable; read the stored value instead of resubmitting.
	ErrAlreadyDisclosed = errors.New("already disclosed")

	// ErrInvalidProof: the attestation does not bind this exact handle, value
	// and context. Fatal for that attestation; only a fresh oracle round-trip
	// can recover.
	ErrInvalidProof = errors.New("invalid proof")

	// ErrEncoding: plaintext does not fit the declared bit width.
	ErrEncoding = errors.New("encoding error")

	// ErrOracleUnavailable: transient oracle failure. The only retryable
	// condition; retried with backoff by the client orchestration layer.
	ErrOracleUnavailable = errors.New("oracle unavailable")
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}
