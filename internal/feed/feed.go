// Package feed delivers activity-feed events produced by like and reaction
// mutations. Delivery is fire-and-forget from the caller's point of view.
package feed

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/metrics"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

// Sink accepts one activity-feed event.
type Sink interface {
	Publish(ctx context.Context, userID int64, eventType domain.EventType, operation domain.Operation, entityID int64) error
}

type named interface {
	Name() string
}

func sinkName(sink Sink) string {
	if n, ok := sink.(named); ok {
		return n.Name()
	}
	return "unknown"
}

// Emit publishes to sink synchronously. A failure is logged and counted,
// never returned.
func Emit(ctx context.Context, logger zerolog.Logger, sink Sink, userID int64, eventType domain.EventType, operation domain.Operation, entityID int64) {
	if sink == nil {
		return
	}
	if err := sink.Publish(ctx, userID, eventType, operation, entityID); err != nil {
		name := sinkName(sink)
		metrics.FeedPublishFailures.WithLabelValues(name).Inc()
		logger.Warn().
			Err(err).
			Str("sink", name).
			Int64("user_id", userID).
			Str("event_type", string(eventType)).
			Str("operation", string(operation)).
			Int64("entity_id", entityID).
			Msg("feed event not delivered")
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, int64, domain.EventType, domain.Operation, int64) error {
	return nil
}

func (Discard) Name() string { return "discard" }

// StoreSink appends events to a FeedRepository.
type StoreSink struct {
	repo repository.FeedRepository
	now  func() time.Time
}

// NewStoreSink wraps repo.
func NewStoreSink(repo repository.FeedRepository) *StoreSink {
	return &StoreSink{repo: repo, now: time.Now}
}

func (s *StoreSink) Publish(ctx context.Context, userID int64, eventType domain.EventType, operation domain.Operation, entityID int64) error {
	_, err := s.repo.Append(ctx, domain.FeedEvent{
		Timestamp: s.now().UTC(),
		UserID:    userID,
		EventType: eventType,
		Operation: operation,
		EntityID:  entityID,
	})
	return err
}

func (s *StoreSink) Name() string { return "store" }

// Fanout publishes every event to each sink in order.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, userID int64, eventType domain.EventType, operation domain.Operation, entityID int64) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Publish(ctx, userID, eventType, operation, entityID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Name() string { return "fanout" }
