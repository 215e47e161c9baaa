package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/veilshelf/veilshelf"
	"github.com/veilshelf/veilshelf/internal/domain"
)

var tracer = otel.Tracer("ledger")

// CreateInput is the validated input for creating a record.
type CreateInput struct {
	ID             string
	Title          string
	Author         string
	Description    string
	PublicCategory int
	PublicYear     int
	Handle         veilshelf.CiphertextHandle
	Proof          veilshelf.RangeProof
	Creator        string
}

// LedgerUsecase owns the record lifecycle up to (but not including) the
// disclosure commit, which belongs to the verification engine.
type LedgerUsecase struct {
	repo   LedgerRepository
	events EventPublisher
	config domain.Config
}

func NewLedgerUsecase(repo LedgerRepository, events EventPublisher, config domain.Config) *LedgerUsecase {
	return &LedgerUsecase{repo: repo, events: events, config: config}
}

// Create validates the handle's proof of well-formedness against this
// ledger's context and the claimed creator, then stores the record
// undisclosed. Emits a RecordCreated event on success.
func (uc *LedgerUsecase) Create(ctx context.Context, input CreateInput) error {
	ctx, span := tracer.Start(ctx, "Ledger.Usecase.Create")
	defer span.End()

	if err := veilshelf.VerifyRangeProof(input.Proof, uc.config.ContextID, input.Creator, input.Handle); err != nil {
		span.RecordError(errors.Wrap(err, "range proof rejected"))
		return errors.Wrapf(veilshelf.ErrInvalidCiphertext, "%v", err)
	}

	record := domain.Record{
		ID:               input.ID,
		Title:            input.Title,
		Author:           input.Author,
		Description:      input.Description,
		PublicCategory:   input.PublicCategory,
		PublicYear:       input.PublicYear,
		CiphertextHandle: input.Handle,
		Disclosed:        false,
		Creator:          input.Creator,
		CreatedAt:        time.Now().UTC(),
	}

	if err := uc.repo.Create(ctx, record); err != nil {
		span.RecordError(err)
		return err
	}

	uc.emit(ctx, veilshelf.Event{
		Type:      veilshelf.EventRecordCreated,
		ID:        record.ID,
		Creator:   record.Creator,
		Timestamp: record.CreatedAt,
	})

	return nil
}

func (uc *LedgerUsecase) Get(ctx context.Context, id string) (domain.Record, error) {
	return uc.repo.Get(ctx, id)
}

func (uc *LedgerUsecase) GetHandle(ctx context.Context, id string) (veilshelf.CiphertextHandle, error) {
	return uc.repo.GetHandle(ctx, id)
}

func (uc *LedgerUsecase) ListIDs(ctx context.Context) ([]string, error) {
	return uc.repo.ListIDs(ctx)
}

func (uc *LedgerUsecase) Health(ctx context.Context) error {
	return uc.repo.Ping(ctx)
}

// emit publishes best-effort: the record row is already durable, and
// subscribers can recover missed events by reading it back.
func (uc *LedgerUsecase) emit(ctx context.Context, event veilshelf.Event) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			slog.String("type", event.Type),
			slog.String("id", event.ID),
			slog.String("error", err.Error()),
			slog.String("module", "ledger"),
		)
	}
}
