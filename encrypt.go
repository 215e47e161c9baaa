package veilshelf

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/crypto/nacl/box"
)

// Encrypt turns a plaintext into a ciphertext handle only the oracle can open,
// plus a proof of well-formedness bound to (contextID, subjectID). It is a
// pure client-side operation and never touches the ledger.
func Encrypt(contextID, subjectID string, plaintext uint64, oracleKey *[32]byte, privatekey string) (CiphertextHandle, RangeProof, error) {
	if plaintext > math.MaxUint32 {
		return nil, RangeProof{}, fmt.Errorf("%w: plaintext exceeds %d bits", ErrEncoding, PlaintextBits)
	}

	var payload [4]byte
	binary.BigEndian.PutUint32(payload[:], uint32(plaintext))

	sealed, err := box.SealAnonymous(nil, payload[:], oracleKey, rand.Reader)
	if err != nil {
		return nil, RangeProof{}, err
	}
	handle := CiphertextHandle(sealed)

	message := RangeBindingMessage(PlaintextBits, contextID, subjectID, handle)
	signature, err := SignBytes(message, privatekey)
	if err != nil {
		return nil, RangeProof{}, err
	}

	return handle, RangeProof{Bits: PlaintextBits, Signature: signature}, nil
}
