package veilshelf

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Domain separation tags for signed binding messages. Changing a layout means
// a new version tag, never a silent re-interpretation of old signatures.
const (
	rangeBindingTag      = "veilshelf.range.v1"
	disclosureBindingTag = "veilshelf.disclosure.v1"
)

// RangeBindingMessage is the byte string a subject signs at encryption time.
// It commits to the bit width, the context, the subject and the handle digest.
func RangeBindingMessage(bits int, contextID, subjectID string, handle CiphertextHandle) []byte {
	var buf bytes.Buffer
	buf.WriteString(rangeBindingTag)
	buf.WriteByte(0)
	buf.WriteByte(byte(bits))
	buf.WriteString(contextID)
	buf.WriteByte(0)
	buf.WriteString(subjectID)
	buf.WriteByte(0)
	buf.Write(GetHash(handle))
	return buf.Bytes()
}

// DisclosureBindingMessage is the byte string an oracle signs. It commits to
// the context and to every (handle digest, value) pair in order.
func DisclosureBindingMessage(contextID string, digests [][]byte, values []uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString(disclosureBindingTag)
	buf.WriteByte(0)
	buf.WriteString(contextID)
	buf.WriteByte(0)
	for i, d := range digests {
		buf.Write(d)
		var v [4]byte
		binary.BigEndian.PutUint32(v[:], values[i])
		buf.Write(v[:])
	}
	return buf.Bytes()
}

// VerifyRangeProof checks that a handle's proof of well-formedness was issued
// by subjectID for this ledger's context at the declared bit width.
func VerifyRangeProof(proof RangeProof, contextID, subjectID string, handle CiphertextHandle) error {
	if len(handle) == 0 {
		return fmt.Errorf("empty ciphertext handle")
	}
	if proof.Bits != PlaintextBits {
		return fmt.Errorf("unsupported bit width %d", proof.Bits)
	}
	if !IsSubjectID(subjectID) {
		return fmt.Errorf("invalid subject id")
	}
	message := RangeBindingMessage(proof.Bits, contextID, subjectID, handle)
	return VerifySignature(message, proof.Signature, subjectID)
}

// Matches checks that the attestation binds exactly this handle to this value
// under this context, and that it was signed by the given oracle identity.
func (a Attestation) Matches(handle CiphertextHandle, value uint32, contextID, oracle string) error {
	if a.ContextID != contextID {
		return fmt.Errorf("context mismatch")
	}
	if a.Oracle != oracle {
		return fmt.Errorf("unexpected oracle %s", a.Oracle)
	}
	if len(a.HandleDigests) != len(a.Values) {
		return fmt.Errorf("malformed attestation")
	}

	digest := GetHash(handle)
	found := false
	for i, d := range a.HandleDigests {
		if bytes.Equal(d, digest) {
			if a.Values[i] != value {
				return fmt.Errorf("value mismatch")
			}
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("handle not attested")
	}

	message := DisclosureBindingMessage(a.ContextID, a.HandleDigests, a.Values)
	return VerifySignature(message, a.Signature, oracle)
}
