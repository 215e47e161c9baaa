package veilshelf

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func generateKey(t *testing.T) string {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return hex.EncodeToString(crypto.FromECDSA(key))
}

func TestPrivKeyToAddr(t *testing.T) {
	priv := generateKey(t)

	subject, err := PrivKeyToAddr(priv, PrefixSubject)
	if err != nil {
		t.Fatalf("failed to derive subject id: %v", err)
	}
	if !IsSubjectID(subject) {
		t.Fatalf("derived subject id is not valid: %s", subject)
	}
	if IsOracleID(subject) {
		t.Fatalf("subject id must not pass as oracle id: %s", subject)
	}

	oracle, err := PrivKeyToAddr(priv, PrefixOracle)
	if err != nil {
		t.Fatalf("failed to derive oracle id: %v", err)
	}
	if !IsOracleID(oracle) {
		t.Fatalf("derived oracle id is not valid: %s", oracle)
	}
}

func TestSignAndVerify(t *testing.T) {
	priv := generateKey(t)
	subject, _ := PrivKeyToAddr(priv, PrefixSubject)

	message := []byte("the quick brown fox")
	signature, err := SignBytes(message, priv)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	if len(signature) != 65 {
		t.Fatalf("expected 65 byte signature, got %d", len(signature))
	}

	if err := VerifySignature(message, signature, subject); err != nil {
		t.Fatalf("verification failed: %v", err)
	}

	if err := VerifySignature([]byte("another message"), signature, subject); err == nil {
		t.Fatalf("expected verification to fail for a different message")
	}

	other, _ := PrivKeyToAddr(generateKey(t), PrefixSubject)
	if err := VerifySignature(message, signature, other); err == nil {
		t.Fatalf("expected verification to fail for a different identity")
	}
}

func TestRecoverAddr(t *testing.T) {
	priv := generateKey(t)
	subject, _ := PrivKeyToAddr(priv, PrefixSubject)

	message := []byte("payload")
	signature, err := SignBytes(message, priv)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	recovered, err := RecoverAddr(message, signature, PrefixSubject)
	if err != nil {
		t.Fatalf("failed to recover: %v", err)
	}
	if recovered != subject {
		t.Fatalf("expected %s got %s", subject, recovered)
	}
}

func TestVerifySignatureRejectsTruncated(t *testing.T) {
	priv := generateKey(t)
	subject, _ := PrivKeyToAddr(priv, PrefixSubject)

	signature, _ := SignBytes([]byte("msg"), priv)
	if err := VerifySignature([]byte("msg"), signature[:64], subject); err == nil {
		t.Fatalf("expected truncated signature to be rejected")
	}
}
