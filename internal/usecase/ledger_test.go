package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/nacl/box"

	"github.com/veilshelf/veilshelf"
	"github.com/veilshelf/veilshelf/internal/domain"
)

type mockLedgerRepo struct {
	created   []domain.Record
	committed map[string]uint32
	records   map[string]domain.Record
}

func newMockLedgerRepo() *mockLedgerRepo {
	return &mockLedgerRepo{
		committed: make(map[string]uint32),
		records:   make(map[string]domain.Record),
	}
}

func (m *mockLedgerRepo) Create(ctx context.Context, record domain.Record) error {
	if _, ok := m.records[record.ID]; ok {
		return veilshelf.ErrDuplicateID
	}
	m.records[record.ID] = record
	m.created = append(m.created, record)
	return nil
}

func (m *mockLedgerRepo) Get(ctx context.Context, id string) (domain.Record, error) {
	record, ok := m.records[id]
	if !ok {
		return domain.Record{}, veilshelf.NotFoundError{Resource: "record"}
	}
	return record, nil
}

func (m *mockLedgerRepo) GetHandle(ctx context.Context, id string) (veilshelf.CiphertextHandle, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, veilshelf.NotFoundError{Resource: "record"}
	}
	return record.CiphertextHandle, nil
}

func (m *mockLedgerRepo) CommitDisclosure(ctx context.Context, id string, value uint32) error {
	record, ok := m.records[id]
	if !ok {
		return veilshelf.NotFoundError{Resource: "record"}
	}
	if record.Disclosed {
		return veilshelf.ErrAlreadyDisclosed
	}
	record.Disclosed = true
	record.DisclosedValue = value
	m.records[id] = record
	m.committed[id] = value
	return nil
}

func (m *mockLedgerRepo) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *mockLedgerRepo) Ping(ctx context.Context) error { return nil }

type mockPublisher struct {
	events []veilshelf.Event
}

func (m *mockPublisher) Publish(ctx context.Context, event veilshelf.Event) error {
	m.events = append(m.events, event)
	return nil
}

type testSubject struct {
	priv string
	id   string
}

func newTestSubject(t *testing.T) testSubject {
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
	return testSubject{priv: priv, id: id}
}

func encryptFor(t *testing.T, contextID string, subject testSubject, value uint32) (veilshelf.CiphertextHandle, veilshelf.RangeProof) {
	t.Helper()
	oraclePub, _, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate oracle keypair: %v", err)
	}
	handle, proof, err := veilshelf.Encrypt(contextID, subject.id, uint64(value), oraclePub, subject.priv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	return handle, proof
}

func TestLedgerUsecaseCreate(t *testing.T) {
	repo := newMockLedgerRepo()
	events := &mockPublisher{}
	conf := domain.Config{ContextID: "ctx-main"}
	uc := NewLedgerUsecase(repo, events, conf)

	subject := newTestSubject(t)
	handle, proof := encryptFor(t, "ctx-main", subject, 3)

	err := uc.Create(context.Background(), CreateInput{
		ID:      "book-001",
		Title:   "A Title",
		Handle:  handle,
		Proof:   proof,
		Creator: subject.id,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one created record, got %d", len(repo.created))
	}
	if repo.created[0].Disclosed {
		t.Fatalf("new record must not be disclosed")
	}

	if len(events.events) != 1 || events.events[0].Type != veilshelf.EventRecordCreated {
		t.Fatalf("expected a record.created event")
	}
}

func TestLedgerUsecaseCreateRejectsForeignProof(t *testing.T) {
	repo := newMockLedgerRepo()
	conf := domain.Config{ContextID: "ctx-main"}
	uc := NewLedgerUsecase(repo, &mockPublisher{}, conf)

	subject := newTestSubject(t)
	impostor := newTestSubject(t)
	handle, proof := encryptFor(t, "ctx-main", subject, 3)

	err := uc.Create(context.Background(), CreateInput{
		ID:      "book-002",
		Title:   "A Title",
		Handle:  handle,
		Proof:   proof,
		Creator: impostor.id,
	})
	if !errors.Is(err, veilshelf.ErrInvalidCiphertext) {
		t.Fatalf("expected ErrInvalidCiphertext got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("no record may be stored on a rejected proof")
	}
}

func TestLedgerUsecaseCreateRejectsForeignContext(t *testing.T) {
	repo := newMockLedgerRepo()
	conf := domain.Config{ContextID: "ctx-main"}
	uc := NewLedgerUsecase(repo, &mockPublisher{}, conf)

	subject := newTestSubject(t)
	handle, proof := encryptFor(t, "ctx-other", subject, 3)

	err := uc.Create(context.Background(), CreateInput{
		ID:      "book-003",
		Title:   "A Title",
		Handle:  handle,
		Proof:   proof,
		Creator: subject.id,
	})
	if !errors.Is(err, veilshelf.ErrInvalidCiphertext) {
		t.Fatalf("expected ErrInvalidCiphertext got %v", err)
	}
}

func TestLedgerUsecaseCreateDuplicate(t *testing.T) {
	repo := newMockLedgerRepo()
	events := &mockPublisher{}
	conf := domain.Config{ContextID: "ctx-main"}
	uc := NewLedgerUsecase(repo, events, conf)

	subject := newTestSubject(t)
	handle, proof := encryptFor(t, "ctx-main", subject, 3)

	input := CreateInput{
		ID:      "book-004",
		Title:   "A Title",
		Handle:  handle,
		Proof:   proof,
		Creator: subject.id,
	}

	if err := uc.Create(context.Background(), input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	err := uc.Create(context.Background(), input)
	if !errors.Is(err, veilshelf.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID got %v", err)
	}
	if len(events.events) != 1 {
		t.Fatalf("duplicate create must not emit an event")
	}
}
