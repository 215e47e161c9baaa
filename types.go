package veilshelf

import (
	"context"
	"time"
)

// PlaintextBits is the declared bit width of the confidential attribute.
// Encrypt rejects plaintexts outside this range before any cryptographic work.
const PlaintextBits = 32

// CiphertextHandle is an opaque reference to an encrypted scalar. Only the
// disclosure oracle can recover the plaintext; everyone else treats it as a
// byte blob and identifies it by digest.
type CiphertextHandle []byte

// RangeProof is the proof of well-formedness produced at encryption time.
// It binds the ciphertext handle to a (context, subject) pair and to the
// declared bit width without revealing the plaintext.
type RangeProof struct {
	Bits      int    `json:"bits"`
	Signature []byte `json:"signature"`
}

// Attestation binds a set of ciphertext handles, the cleartext values the
// oracle recovered for them, and a context id. Any party that knows the
// oracle's identity can check it; the decryption key is never needed.
type Attestation struct {
	ContextID     string   `json:"contextId"`
	Oracle        string   `json:"oracle"`
	HandleDigests [][]byte `json:"handleDigests"`
	Values        []uint32 `json:"values"`
	Signature     []byte   `json:"signature"`
}

// Oracle is the capability boundary to the external decryption authority.
// Implementations are assumed to be a network round-trip that can fail
// transiently; such failures match ErrOracleUnavailable.
type Oracle interface {
	RequestDisclosure(ctx context.Context, handles []CiphertextHandle, contextID string) (map[string]uint32, Attestation, error)
}

// Record is the wire representation of a catalog record.
type Record struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Author           string           `json:"author"`
	Description      string           `json:"description,omitempty"`
	PublicCategory   int              `json:"publicCategory"`
	PublicYear       int              `json:"publicYear"`
	CiphertextHandle CiphertextHandle `json:"ciphertextHandle"`
	DisclosedValue   uint32           `json:"disclosedValue"`
	Disclosed        bool             `json:"disclosed"`
	Creator          string           `json:"creator"`
	CreatedAt        time.Time        `json:"createdAt"`
}

const (
	EventRecordCreated  = "record.created"
	EventValueDisclosed = "value.disclosed"
)

// Event is a ledger notification delivered to subscribers after a commit.
type Event struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	Creator   string    `json:"creator,omitempty"`
	Value     *uint32   `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WellKnownVeilshelf describes a ledger node to clients.
type WellKnownVeilshelf struct {
	Version   string            `json:"version"`
	Domain    string            `json:"domain"`
	NodeID    string            `json:"nodeId"`
	ContextID string            `json:"contextId"`
	Oracle    string            `json:"oracle"`
	Endpoints map[string]string `json:"endpoints"`
}
