package gateway

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/nacl/box"

	"github.com/veilshelf/veilshelf"
)

// MemoryOracle is an in-process disclosure oracle holding its own decryption
// and signing keys. It exists for tests and single-node development, where
// running a separate oracle service would be overkill.
type MemoryOracle struct {
	boxPub  *[32]byte
	boxPriv *[32]byte
	signKey string
	id      string
}

func NewMemoryOracle() (*MemoryOracle, error) {
	boxPub, boxPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	ecdsaKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	signKey := hex.EncodeToString(crypto.FromECDSA(ecdsaKey))

	id, err := veilshelf.PrivKeyToAddr(signKey, veilshelf.PrefixOracle)
	if err != nil {
		return nil, err
	}

	return &MemoryOracle{
		boxPub:  boxPub,
		boxPriv: boxPriv,
		signKey: signKey,
		id:      id,
	}, nil
}

// PublicKey returns the encryption key record creators seal plaintexts to.
func (o *MemoryOracle) PublicKey() *[32]byte {
	key := *o.boxPub
	return &key
}

// ID returns the oracle's signing identity.
func (o *MemoryOracle) ID() string {
	return o.id
}

func (o *MemoryOracle) RequestDisclosure(ctx context.Context, handles []veilshelf.CiphertextHandle, contextID string) (map[string]uint32, veilshelf.Attestation, error) {
	type pair struct {
		digest []byte
		value  uint32
	}

	pairs := make([]pair, 0, len(handles))
	values := make(map[string]uint32, len(handles))
	for _, handle := range handles {
		payload, ok := box.OpenAnonymous(nil, handle, o.boxPub, o.boxPriv)
		if !ok {
			return nil, veilshelf.Attestation{}, fmt.Errorf("%w: handle is not sealed to this oracle", veilshelf.ErrInvalidCiphertext)
		}
		if len(payload) != 4 {
			return nil, veilshelf.Attestation{}, fmt.Errorf("%w: unexpected payload length %d", veilshelf.ErrInvalidCiphertext, len(payload))
		}

		value := binary.BigEndian.Uint32(payload)
		digest := veilshelf.GetHash(handle)
		pairs = append(pairs, pair{digest: digest, value: value})
		values[hex.EncodeToString(digest)] = value
	}

	// Deterministic attestation ordering regardless of request order.
	sort.Slice(pairs, func(i, j int) bool {
		return hex.EncodeToString(pairs[i].digest) < hex.EncodeToString(pairs[j].digest)
	})

	digests := make([][]byte, len(pairs))
	ordered := make([]uint32, len(pairs))
	for i, p := range pairs {
		digests[i] = p.digest
		ordered[i] = p.value
	}

	message := veilshelf.DisclosureBindingMessage(contextID, digests, ordered)
	signature, err := veilshelf.SignBytes(message, o.signKey)
	if err != nil {
		return nil, veilshelf.Attestation{}, err
	}

	return values, veilshelf.Attestation{
		ContextID:     contextID,
		Oracle:        o.id,
		HandleDigests: digests,
		Values:        ordered,
		Signature:     signature,
	}, nil
}

var _ veilshelf.Oracle = (*MemoryOracle)(nil)
