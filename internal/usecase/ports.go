package usecase

import (
	"context"

	"github.com/veilshelf/veilshelf"
	"github.com/veilshelf/veilshelf/internal/domain"
)

// LedgerRepository defines storage operations for catalog records. Mutations
// are serialized per id and atomic; implementations re-check the disclosure
// flag under their own lock so a verify race cannot double-commit.
type LedgerRepository interface {
	Create(ctx context.Context, record domain.Record) error
	Get(ctx context.Context, id string) (domain.Record, error)
	GetHandle(ctx context.Context, id string) (veilshelf.CiphertextHandle, error)
	CommitDisclosure(ctx context.Context, id string, value uint32) error
	ListIDs(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// EventPublisher delivers ledger notifications after a successful commit.
type EventPublisher interface {
	Publish(ctx context.Context, event veilshelf.Event) error
}
