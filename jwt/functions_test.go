package jwt

import (
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/veilshelf/veilshelf"
)

func newKeypair(t *testing.T) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	priv := hex.EncodeToString(crypto.FromECDSA(key))
	id, err := veilshelf.PrivKeyToAddr(priv, veilshelf.PrefixSubject)
	if err != nil {
		t.Fatalf("failed to derive subject id: %v", err)
	}
	return priv, id
}

func TestCreateAndValidate(t *testing.T) {
	priv, subject := newKeypair(t)

	token, err := Create(Claims{
		Issuer:         subject,
		Subject:        "veilshelf",
		Audience:       "ledger.example.com",
		ExpirationTime: strconv.FormatInt(time.Now().Unix()+300, 10),
	}, priv)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	header, claims, err := Validate(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if header.Algorithm != "VEILSHELF" {
		t.Fatalf("unexpected algorithm: %s", header.Algorithm)
	}
	if claims.Issuer != subject {
		t.Fatalf("expected issuer %s got %s", subject, claims.Issuer)
	}
}

func TestValidateRejectsExpired(t *testing.T) {
	priv, subject := newKeypair(t)

	token, err := Create(Claims{
		Issuer:         subject,
		Subject:        "veilshelf",
		ExpirationTime: strconv.FormatInt(time.Now().Unix()-10, 10),
	}, priv)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	if _, _, err := Validate(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateRejectsForeignIssuer(t *testing.T) {
	priv, _ := newKeypair(t)
	_, other := newKeypair(t)

	token, err := Create(Claims{
		Issuer:  other,
		Subject: "veilshelf",
	}, priv)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	if _, _, err := Validate(token); err == nil {
		t.Fatalf("expected token with mismatched issuer to be rejected")
	}
}
