// Package recommend suggests films from the single most similar user.
package recommend

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/metrics"
	"github.com/Clark-Hu/cinesignal/internal/ranking"
	"github.com/Clark-Hu/cinesignal/internal/repository"
	"github.com/Clark-Hu/cinesignal/internal/telemetry"
)

// Engine implements top-1 neighbor collaborative filtering over likes.
type Engine struct {
	likes  repository.LikeRepository
	logger zerolog.Logger
}

// New builds an Engine.
func New(likes repository.LikeRepository, logger zerolog.Logger) *Engine {
	return &Engine{likes: likes, logger: logger.With().Str("component", "recommend").Logger()}
}

// SelectNeighbor picks the user with the largest positive overlap, breaking
// ties by the smallest user id. self and non-positive overlaps are ignored.
func SelectNeighbor(overlaps map[int64]int, self int64) (int64, bool) {
	var (
		best      int64
		bestCount int
		found     bool
	)
	for userID, count := range overlaps {
		if userID == self || count <= 0 {
			continue
		}
		if !found || count > bestCount || (count == bestCount && userID < best) {
			best, bestCount, found = userID, count, true
		}
	}
	return best, found
}

// Recommend returns films liked by the nearest neighbor and not by userID,
// most liked first. A user with no neighbor gets an empty list.
func (e *Engine) Recommend(ctx context.Context, userID int64) (ids []int64, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "recommend.Recommend")
	span.SetAttributes(attribute.Int64("user.id", userID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.Recommendations.WithLabelValues("error").Inc()
		}
		span.End()
	}()

	overlaps, err := e.likes.Overlaps(ctx, userID)
	if err != nil {
		return nil, err
	}
	neighbor, ok := SelectNeighbor(overlaps, userID)
	if !ok {
		metrics.Recommendations.WithLabelValues("empty").Inc()
		e.logger.Debug().Int64("user_id", userID).Msg("no neighbor shares a liked film")
		return []int64{}, nil
	}
	span.SetAttributes(attribute.Int64("neighbor.id", neighbor), attribute.Int("neighbor.overlap", overlaps[neighbor]))

	mine, err := e.likes.FilmsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	theirs, err := e.likes.FilmsByUser(ctx, neighbor)
	if err != nil {
		return nil, err
	}

	candidates := domain.NewIDSet()
	for id := range theirs {
		if !mine.Has(id) {
			candidates.Add(id)
		}
	}
	metrics.Recommendations.WithLabelValues("neighbor").Inc()
	if len(candidates) == 0 {
		return []int64{}, nil
	}

	counts, err := e.likes.Counts(ctx, candidates)
	if err != nil {
		return nil, err
	}
	ids = ranking.Order(candidates.Sorted(), counts)
	e.logger.Debug().
		Int64("user_id", userID).
		Int64("neighbor_id", neighbor).
		Int("overlap", overlaps[neighbor]).
		Int("recommended", len(ids)).
		Msg("recommendations computed")
	return ids, nil
}
