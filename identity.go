package veilshelf

import (
	"bytes"
	"fmt"

	"github.com/cosmos/cosmos-sdk/types/bech32"
	"github.com/ethereum/go-ethereum/crypto"
)

// Identity prefixes. Subjects (record creators) and oracles live in separate
// namespaces so a subject key can never pose as a disclosure authority.
const (
	PrefixSubject = "vsh"
	PrefixOracle  = "vso"
)

func GetHash(b []byte) []byte {
	return crypto.Keccak256(b)
}

// SignBytes signs keccak256(message) with a hex-encoded secp256k1 private key
// and returns a 65-byte recovery signature.
func SignBytes(message []byte, privatekey string) ([]byte, error) {
	key, err := crypto.HexToECDSA(privatekey)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(GetHash(message), key)
}

// VerifySignature recovers the signer of message and checks it against the
// given bech32 identity.
func VerifySignature(message []byte, signature []byte, keyID string) error {
	recovered, err := recoverAddrBytes(message, signature)
	if err != nil {
		return err
	}

	_, want, err := bech32.DecodeAndConvert(keyID)
	if err != nil {
		return fmt.Errorf("invalid key id: %v", err)
	}

	if !bytes.Equal(recovered, want) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// RecoverAddr recovers the signer of message as a bech32 identity with the
// given prefix.
func RecoverAddr(message []byte, signature []byte, prefix string) (string, error) {
	recovered, err := recoverAddrBytes(message, signature)
	if err != nil {
		return "", err
	}
	return bech32.ConvertAndEncode(prefix, recovered)
}

func recoverAddrBytes(message []byte, signature []byte) ([]byte, error) {
	if len(signature) != 65 {
		return nil, fmt.Errorf("invalid signature length")
	}
	pubkey, err := crypto.SigToPub(GetHash(message), signature)
	if err != nil {
		return nil, err
	}
	addr := crypto.PubkeyToAddress(*pubkey)
	return addr.Bytes(), nil
}

// PrivKeyToAddr derives the bech32 identity for a hex-encoded secp256k1
// private key.
func PrivKeyToAddr(privatekey string, prefix string) (string, error) {
	key, err := crypto.HexToECDSA(privatekey)
	if err != nil {
		return "", err
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)
	return bech32.ConvertAndEncode(prefix, addr.Bytes())
}

func hasChar(s string, c byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return true
		}
	}
	return false
}

func IsSubjectID(keyID string) bool {
	return len(keyID) == 42 && keyID[:3] == PrefixSubject && !hasChar(keyID, '.')
}

func IsOracleID(keyID string) bool {
	return len(keyID) == 42 && keyID[:3] == PrefixOracle && !hasChar(keyID, '.')
}
