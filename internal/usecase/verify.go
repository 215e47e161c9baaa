package usecase

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/veilshelf/veilshelf"
	"github.com/veilshelf/veilshelf/internal/domain"
)

// VerifyUsecase is the verification engine. A record moves from unverified to
// disclosed exactly once; there is no other transition and no reverting.
// Anyone may call Verify: authorization lives in the attestation binding,
// not in caller identity.
type VerifyUsecase struct {
	repo   LedgerRepository
	events EventPublisher
	oracle veilshelf.Oracle
	config domain.Config
}

func NewVerifyUsecase(repo LedgerRepository, events EventPublisher, oracle veilshelf.Oracle, config domain.Config) *VerifyUsecase {
	return &VerifyUsecase{repo: repo, events: events, oracle: oracle, config: config}
}

// Verify checks an oracle attestation against the record's own handle and
// this ledger's context, and commits the cleartext value if and only if the
// binding holds. No state is touched on any failure path.
func (uc *VerifyUsecase) Verify(ctx context.Context, id string, value uint32, attestation veilshelf.Attestation) error {
	ctx, span := tracer.Start(ctx, "Verify.Usecase.Verify")
	defer span.End()

	record, err := uc.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	if record.Disclosed {
		return veilshelf.ErrAlreadyDisclosed
	}

	if err := attestation.Matches(record.CiphertextHandle, value, uc.config.ContextID, uc.config.OracleID); err != nil {
		span.RecordError(errors.Wrap(err, "attestation rejected"))
		return errors.Wrapf(veilshelf.ErrInvalidProof, "%v", err)
	}

	// The repository re-checks the disclosure flag under its own lock, so a
	// concurrent verify resolves to one commit and one ErrAlreadyDisclosed.
	if err := uc.repo.CommitDisclosure(ctx, id, value); err != nil {
		span.RecordError(err)
		return err
	}

	uc.emitDisclosed(ctx, id, value)
	return nil
}

// Disclose runs the oracle round-trip on the record's behalf and commits the
// result through Verify. It exists for deployments where the node itself is
// configured with an oracle endpoint; the record is untouched until the
// attestation checks out.
func (uc *VerifyUsecase) Disclose(ctx context.Context, id string) (uint32, error) {
	ctx, span := tracer.Start(ctx, "Verify.Usecase.Disclose")
	defer span.End()

	if uc.oracle == nil {
		return 0, errors.Wrap(veilshelf.ErrOracleUnavailable, "no oracle configured")
	}

	handle, err := uc.repo.GetHandle(ctx, id)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	values, attestation, err := uc.oracle.RequestDisclosure(ctx, []veilshelf.CiphertextHandle{handle}, uc.config.ContextID)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	value, ok := values[hex.EncodeToString(veilshelf.GetHash(handle))]
	if !ok {
		err := errors.New("oracle response is missing the requested handle")
		span.RecordError(err)
		return 0, errors.Wrapf(veilshelf.ErrInvalidProof, "%v", err)
	}

	if err := uc.Verify(ctx, id, value, attestation); err != nil {
		return 0, err
	}
	return value, nil
}

func (uc *VerifyUsecase) emitDisclosed(ctx context.Context, id string, value uint32) {
	if uc.events == nil {
		return
	}
	v := value
	event := veilshelf.Event{
		Type:      veilshelf.EventValueDisclosed,
		ID:        id,
		Value:     &v,
		Timestamp: time.Now().UTC(),
	}
	if err := uc.events.Publish(ctx, event); err != nil {
		slog.WarnContext(ctx, "failed to publish event",
			slog.String("type", event.Type),
			slog.String("id", event.ID),
			slog.String("error", err.Error()),
			slog.String("module", "verify"),
		)
	}
}
