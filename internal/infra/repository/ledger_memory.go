package repository

import (
	"context"
	"sync"

	"github.com/veilshelf/veilshelf"
	"github.com/veilshelf/veilshelf/internal/domain"
	"github.com/veilshelf/veilshelf/internal/usecase"
)

// MemoryLedger is an in-process LedgerRepository used in tests and
// single-node development setups.
type MemoryLedger struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
	order   []string
}

type memoryRecord struct {
	mu     sync.Mutex
	record domain.Record
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records: make(map[string]*memoryRecord),
	}
}

func (r *MemoryLedger) Create(ctx context.Context, record domain.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[record.ID]; ok {
		return veilshelf.ErrDuplicateID
	}

	r.records[record.ID] = &memoryRecord{record: record}
	r.order = append(r.order, record.ID)
	return nil
}

func (r *MemoryLedger) Get(ctx context.Context, id string) (domain.Record, error) {
	entry, err := r.lookup(id)
	if err != nil {
		return domain.Record{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.record, nil
}

func (r *MemoryLedger) GetHandle(ctx context.Context, id string) (veilshelf.CiphertextHandle, error) {
	entry, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.record.CiphertextHandle, nil
}

func (r *MemoryLedger) CommitDisclosure(ctx context.Context, id string, value uint32) error {
	entry, err := r.lookup(id)
	if err != nil {
		return err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.record.Disclosed {
		return veilshelf.ErrAlreadyDisclosed
	}

	entry.record.Disclosed = true
	entry.record.DisclosedValue = value
	return nil
}

func (r *MemoryLedger) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids, nil
}

func (r *MemoryLedger) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryLedger) lookup(id string) (*memoryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.records[id]
	if !ok {
		return nil, veilshelf.NotFoundError{Resource: "record"}
	}
	return entry, nil
}

var _ usecase.LedgerRepository = (*MemoryLedger)(nil)
