package veilshelf

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"golang.org/x/crypto/nacl/box"
)

func TestEncryptProducesVerifiableProof(t *testing.T) {
	oraclePub, oraclePriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate oracle keypair: %v", err)
	}

	priv := generateKey(t)
	subject, _ := PrivKeyToAddr(priv, PrefixSubject)

	handle, proof, err := Encrypt("ctx-main", subject, 42, oraclePub, priv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if err := VerifyRangeProof(proof, "ctx-main", subject, handle); err != nil {
		t.Fatalf("proof verification failed: %v", err)
	}

	payload, ok := box.OpenAnonymous(nil, handle, oraclePub, oraclePriv)
	if !ok {
		t.Fatalf("oracle could not open the handle")
	}
	if got := binary.BigEndian.Uint32(payload); got != 42 {
		t.Fatalf("expected plaintext 42 got %d", got)
	}
}

func TestEncryptRejectsOversizedPlaintext(t *testing.T) {
	oraclePub, _, _ := box.GenerateKey(rand.Reader)
	priv := generateKey(t)
	subject, _ := PrivKeyToAddr(priv, PrefixSubject)

	_, _, err := Encrypt("ctx-main", subject, math.MaxUint32+1, oraclePub, priv)
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding got %v", err)
	}
}

func TestVerifyRangeProofRejectsWrongContext(t *testing.T) {
	oraclePub, _, _ := box.GenerateKey(rand.Reader)
	priv := generateKey(t)
	subject, _ := PrivKeyToAddr(priv, PrefixSubject)

	handle, proof, err := Encrypt("ctx-main", subject, 7, oraclePub, priv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if err := VerifyRangeProof(proof, "ctx-other", subject, handle); err == nil {
		t.Fatalf("expected proof bound to ctx-main to fail under ctx-other")
	}
}

func TestVerifyRangeProofRejectsWrongSubject(t *testing.T) {
	oraclePub, _, _ := box.GenerateKey(rand.Reader)
	priv := generateKey(t)
	subject, _ := PrivKeyToAddr(priv, PrefixSubject)
	other, _ := PrivKeyToAddr(generateKey(t), PrefixSubject)

	handle, proof, err := Encrypt("ctx-main", subject, 7, oraclePub, priv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	if err := VerifyRangeProof(proof, "ctx-main", other, handle); err == nil {
		t.Fatalf("expected proof to fail for a different subject")
	}
}

func TestVerifyRangeProofRejectsTamperedHandle(t *testing.T) {
	oraclePub, _, _ := box.GenerateKey(rand.Reader)
	priv := generateKey(t)
	subject, _ := PrivKeyToAddr(priv, PrefixSubject)

	handle, proof, err := Encrypt("ctx-main", subject, 7, oraclePub, priv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	tampered := make(CiphertextHandle, len(handle))
	copy(tampered, handle)
	tampered[0] ^= 0xff

	if err := VerifyRangeProof(proof, "ctx-main", subject, tampered); err == nil {
		t.Fatalf("expected proof to fail for a tampered handle")
	}
}

func TestAttestationMatches(t *testing.T) {
	oraclePub, _, _ := box.GenerateKey(rand.Reader)
	subjectPriv := generateKey(t)
	subject, _ := PrivKeyToAddr(subjectPriv, PrefixSubject)

	oraclePriv := generateKey(t)
	oracle, _ := PrivKeyToAddr(oraclePriv, PrefixOracle)

	handle, _, err := Encrypt("ctx-main", subject, 9, oraclePub, subjectPriv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	digests := [][]byte{GetHash(handle)}
	values := []uint32{9}
	signature, err := SignBytes(DisclosureBindingMessage("ctx-main", digests, values), oraclePriv)
	if err != nil {
		t.Fatalf("failed to sign attestation: %v", err)
	}

	attestation := Attestation{
		ContextID:     "ctx-main",
		Oracle:        oracle,
		HandleDigests: digests,
		Values:        values,
		Signature:     signature,
	}

	if err := attestation.Matches(handle, 9, "ctx-main", oracle); err != nil {
		t.Fatalf("expected attestation to match: %v", err)
	}

	if err := attestation.Matches(handle, 10, "ctx-main", oracle); err == nil {
		t.Fatalf("expected value mismatch to be rejected")
	}

	if err := attestation.Matches(handle, 9, "ctx-other", oracle); err == nil {
		t.Fatalf("expected context mismatch to be rejected")
	}

	impostor, _ := PrivKeyToAddr(generateKey(t), PrefixOracle)
	if err := attestation.Matches(handle, 9, "ctx-main", impostor); err == nil {
		t.Fatalf("expected unknown oracle to be rejected")
	}
}

func TestAttestationRejectsResignedValues(t *testing.T) {
	oraclePub, _, _ := box.GenerateKey(rand.Reader)
	subjectPriv := generateKey(t)
	subject, _ := PrivKeyToAddr(subjectPriv, PrefixSubject)

	oraclePriv := generateKey(t)
	oracle, _ := PrivKeyToAddr(oraclePriv, PrefixOracle)

	handle, _, err := Encrypt("ctx-main", subject, 9, oraclePub, subjectPriv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	digests := [][]byte{GetHash(handle)}
	signature, err := SignBytes(DisclosureBindingMessage("ctx-main", digests, []uint32{9}), oraclePriv)
	if err != nil {
		t.Fatalf("failed to sign attestation: %v", err)
	}

	// Values doctored after signing.
	attestation := Attestation{
		ContextID:     "ctx-main",
		Oracle:        oracle,
		HandleDigests: digests,
		Values:        []uint32{1000},
		Signature:     signature,
	}

	if err := attestation.Matches(handle, 1000, "ctx-main", oracle); err == nil {
		t.Fatalf("expected doctored attestation to be rejected")
	}
}
