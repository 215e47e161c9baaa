package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/veilshelf/veilshelf"
)

var tracer = otel.Tracer("service")

// EventChannel is the redis pub/sub channel all ledger events flow through.
const EventChannel = "veilshelf:events"

// SignalService fans ledger events out over redis pub/sub. Delivery is
// best-effort; the ledger row is the durable truth.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(rdb *redis.Client) *SignalService {
	return &SignalService{rdb: rdb}
}

func (s *SignalService) Publish(ctx context.Context, event veilshelf.Event) error {
	ctx, span := tracer.Start(ctx, "Service.Signal.Publish")
	defer span.End()

	data, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to marshal event")
	}

	err = s.rdb.Publish(ctx, EventChannel, data).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "failed to publish event")
	}

	return nil
}

// Realtime streams events for the record ids received on input to output.
// Sending a new id list on input replaces the previous subscription filter.
// The loop ends when ctx is cancelled or input closes.
func (s *SignalService) Realtime(ctx context.Context, input <-chan []string, output chan<- veilshelf.Event) {
	pubsub := s.rdb.Subscribe(ctx, EventChannel)
	defer pubsub.Close()

	var filter []string
	messages := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case ids, ok := <-input:
			if !ok {
				return
			}
			filter = ids
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event veilshelf.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(ctx, fmt.Sprintf("failed to unmarshal event: %v", err),
					slog.String("module", "service"),
				)
				continue
			}

			if len(filter) > 0 && !slices.Contains(filter, event.ID) {
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
