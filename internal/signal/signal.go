// Package signal records and queries "user liked film" facts. It is the only
// writer of the like relation and the source of every like count.
package signal

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/feed"
	"github.com/Clark-Hu/cinesignal/internal/metrics"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

// Store wraps a LikeRepository with feed emission and metrics.
type Store struct {
	likes  repository.LikeRepository
	sink   feed.Sink
	logger zerolog.Logger
}

// New builds a Store. A nil sink disables feed emission.
func New(likes repository.LikeRepository, sink feed.Sink, logger zerolog.Logger) *Store {
	if sink == nil {
		sink = feed.Discard{}
	}
	return &Store{
		likes:  likes,
		sink:   sink,
		logger: logger.With().Str("component", "signal").Logger(),
	}
}

// AddLike records that userID likes filmID. A repeat like is a conflict.
func (s *Store) AddLike(ctx context.Context, filmID, userID int64) error {
	err := s.likes.Add(ctx, filmID, userID)
	metrics.LikeMutations.WithLabelValues("add", outcome(err)).Inc()
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("film_id", filmID).Int64("user_id", userID).Msg("like added")
	feed.Emit(ctx, s.logger, s.sink, userID, domain.EventLike, domain.OperationAdd, filmID)
	return nil
}

// RemoveLike deletes the like. Removing an absent like is a conflict.
func (s *Store) RemoveLike(ctx context.Context, filmID, userID int64) error {
	err := s.likes.Remove(ctx, filmID, userID)
	metrics.LikeMutations.WithLabelValues("remove", outcome(err)).Inc()
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("film_id", filmID).Int64("user_id", userID).Msg("like removed")
	feed.Emit(ctx, s.logger, s.sink, userID, domain.EventLike, domain.OperationRemove, filmID)
	return nil
}

// HasLike reports whether userID likes filmID.
func (s *Store) HasLike(ctx context.Context, filmID, userID int64) (bool, error) {
	return s.likes.Exists(ctx, filmID, userID)
}

// LikesForFilm returns the users liking filmID.
func (s *Store) LikesForFilm(ctx context.Context, filmID int64) (domain.IDSet, error) {
	return s.likes.UsersByFilm(ctx, filmID)
}

// LikesForFilms returns likers keyed by film in one batched lookup. A film
// without likes may be absent from the map; callers treat that as empty.
func (s *Store) LikesForFilms(ctx context.Context, filmIDs domain.IDSet) (map[int64]domain.IDSet, error) {
	if len(filmIDs) == 0 {
		return map[int64]domain.IDSet{}, nil
	}
	return s.likes.UsersByFilmIDs(ctx, filmIDs)
}

// FilmsLikedBy returns the films userID likes.
func (s *Store) FilmsLikedBy(ctx context.Context, userID int64) (domain.IDSet, error) {
	return s.likes.FilmsByUser(ctx, userID)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
