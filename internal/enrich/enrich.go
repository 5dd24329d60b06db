// Package enrich attaches genres, likes, directors and review ids to films
// using one batched lookup per relation, whatever the number of films.
package enrich

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/metrics"
	"github.com/Clark-Hu/cinesignal/internal/telemetry"
)

// GenreSource loads genres keyed by film id.
type GenreSource interface {
	GenresByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64][]domain.Genre, error)
}

// DirectorSource loads directors keyed by film id.
type DirectorSource interface {
	DirectorsByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64][]domain.Director, error)
}

// LikeSource loads likers keyed by film id. signal.Store satisfies it.
type LikeSource interface {
	LikesForFilms(ctx context.Context, ids domain.IDSet) (map[int64]domain.IDSet, error)
}

// ReviewSource loads review ids keyed by film id.
type ReviewSource interface {
	IDsByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64]domain.IDSet, error)
}

// Sources groups the collaborators of an Assembler.
type Sources struct {
	Genres    GenreSource
	Directors DirectorSource
	Likes     LikeSource
	Reviews   ReviewSource
}

// Assembler enriches film collections.
type Assembler struct {
	src    Sources
	logger zerolog.Logger
}

// New builds an Assembler over src.
func New(src Sources, logger zerolog.Logger) *Assembler {
	return &Assembler{src: src, logger: logger.With().Str("component", "enrich").Logger()}
}

// Enrich fills the attached collections of every film in place. An empty
// input returns immediately without touching any source.
func (a *Assembler) Enrich(ctx context.Context, films []*domain.Film) (err error) {
	ids := domain.NewIDSet()
	for _, film := range films {
		if film != nil {
			ids.Add(film.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	ctx, span := telemetry.Tracer().Start(ctx, "enrich.Enrich")
	span.SetAttributes(attribute.Int("films", len(ids)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	metrics.EnrichmentFilms.Observe(float64(len(ids)))

	var (
		genres    map[int64][]domain.Genre
		directors map[int64][]domain.Director
		likes     map[int64]domain.IDSet
		reviews   map[int64]domain.IDSet
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		metrics.EnrichmentBatchCalls.WithLabelValues("genres").Inc()
		genres, err = a.src.Genres.GenresByFilmIDs(gCtx, ids)
		return wrap("genres", err)
	})
	g.Go(func() (err error) {
		metrics.EnrichmentBatchCalls.WithLabelValues("directors").Inc()
		directors, err = a.src.Directors.DirectorsByFilmIDs(gCtx, ids)
		return wrap("directors", err)
	})
	g.Go(func() (err error) {
		metrics.EnrichmentBatchCalls.WithLabelValues("likes").Inc()
		likes, err = a.src.Likes.LikesForFilms(gCtx, ids)
		return wrap("likes", err)
	})
	g.Go(func() (err error) {
		metrics.EnrichmentBatchCalls.WithLabelValues("reviews").Inc()
		reviews, err = a.src.Reviews.IDsByFilmIDs(gCtx, ids)
		return wrap("reviews", err)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, film := range films {
		if film == nil {
			continue
		}
		film.Genres = append([]domain.Genre{}, genres[film.ID]...)
		domain.SortGenres(film.Genres)
		film.Directors = append([]domain.Director{}, directors[film.ID]...)
		domain.SortDirectors(film.Directors)
		film.Likes = setOrEmpty(likes[film.ID])
		film.ReviewIDs = setOrEmpty(reviews[film.ID])
	}
	a.logger.Debug().Int("films", len(ids)).Msg("films enriched")
	return nil
}

// EnrichSlice enriches a slice of film values in place.
func (a *Assembler) EnrichSlice(ctx context.Context, films []domain.Film) error {
	ptrs := make([]*domain.Film, len(films))
	for i := range films {
		ptrs[i] = &films[i]
	}
	return a.Enrich(ctx, ptrs)
}

func setOrEmpty(set domain.IDSet) domain.IDSet {
	if set == nil {
		return domain.NewIDSet()
	}
	return set
}

func wrap(relation string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", relation, err)
	}
	return nil
}
