package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"

	"github.com/veilshelf/veilshelf"
	"github.com/veilshelf/veilshelf/internal/domain"
	"github.com/veilshelf/veilshelf/internal/usecase"
)

// CachedLedger wraps a LedgerRepository with a memcached read-through layer.
// Handles are immutable so they are cached unconditionally; full records are
// cached only once disclosed, because a disclosed record never changes again.
// Cache failures fall back to the inner repository.
type CachedLedger struct {
	inner usecase.LedgerRepository
	mc    *memcache.Client
}

func NewCachedLedger(inner usecase.LedgerRepository, mc *memcache.Client) *CachedLedger {
	return &CachedLedger{
		inner: inner,
		mc:    mc,
	}
}

func cacheKey(kind string, id string) string {
	return fmt.Sprintf("vs:%s:%016x", kind, xxh3.HashString(id))
}

func (r *CachedLedger) Create(ctx context.Context, record domain.Record) error {
	return r.inner.Create(ctx, record)
}

func (r *CachedLedger) Get(ctx context.Context, id string) (domain.Record, error) {
	key := cacheKey("record", id)

	if item, err := r.mc.Get(key); err == nil {
		var wire veilshelf.Record
		if err := json.Unmarshal(item.Value, &wire); err == nil {
			return fromWire(wire), nil
		}
	}

	record, err := r.inner.Get(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}

	if record.Disclosed {
		if data, err := json.Marshal(record.Wire()); err == nil {
			if err := r.mc.Set(&memcache.Item{Key: key, Value: data}); err != nil {
				slog.DebugContext(ctx, fmt.Sprintf("failed to cache record: %v", err),
					slog.String("module", "repository"),
				)
			}
		}
	}

	return record, nil
}

func (r *CachedLedger) GetHandle(ctx context.Context, id string) (veilshelf.CiphertextHandle, error) {
	key := cacheKey("handle", id)

	if item, err := r.mc.Get(key); err == nil {
		return veilshelf.CiphertextHandle(item.Value), nil
	}

	handle, err := r.inner.GetHandle(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := r.mc.Set(&memcache.Item{Key: key, Value: handle}); err != nil {
		slog.DebugContext(ctx, fmt.Sprintf("failed to cache handle: %v", err),
			slog.String("module", "repository"),
		)
	}

	return handle, nil
}

func (r *CachedLedger) CommitDisclosure(ctx context.Context, id string, value uint32) error {
	return r.inner.CommitDisclosure(ctx, id, value)
}

func (r *CachedLedger) ListIDs(ctx context.Context) ([]string, error) {
	return r.inner.ListIDs(ctx)
}

func (r *CachedLedger) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

func fromWire(w veilshelf.Record) domain.Record {
	return domain.Record{
		ID:               w.ID,
		Title:            w.Title,
		Author:           w.Author,
		Description:      w.Description,
		PublicCategory:   w.PublicCategory,
		PublicYear:       w.PublicYear,
		CiphertextHandle: w.CiphertextHandle,
		DisclosedValue:   w.DisclosedValue,
		Disclosed:        w.Disclosed,
		Creator:          w.Creator,
		CreatedAt:        w.CreatedAt,
	}
}

var _ usecase.LedgerRepository = (*CachedLedger)(nil)
