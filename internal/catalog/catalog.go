// Package catalog is the read side: every film it returns has passed
// through the enrichment assembler.
package catalog

import (
	"context"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/enrich"
	"github.com/Clark-Hu/cinesignal/internal/ranking"
	"github.com/Clark-Hu/cinesignal/internal/recommend"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

// Catalog loads base film rows and enriches them.
type Catalog struct {
	films     repository.FilmRepository
	ranker    *ranking.Ranker
	recommend *recommend.Engine
	assembler *enrich.Assembler
}

// New builds a Catalog.
func New(films repository.FilmRepository, ranker *ranking.Ranker, rec *recommend.Engine, assembler *enrich.Assembler) *Catalog {
	return &Catalog{films: films, ranker: ranker, recommend: rec, assembler: assembler}
}

// Film returns one enriched film.
func (c *Catalog) Film(ctx context.Context, id int64) (domain.Film, error) {
	film, err := c.films.Get(ctx, id)
	if err != nil {
		return domain.Film{}, err
	}
	if err := c.assembler.Enrich(ctx, []*domain.Film{&film}); err != nil {
		return domain.Film{}, err
	}
	return film, nil
}

// Films returns every film, enriched, ordered by id.
func (c *Catalog) Films(ctx context.Context) ([]domain.Film, error) {
	films, err := c.films.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.assembler.EnrichSlice(ctx, films); err != nil {
		return nil, err
	}
	return films, nil
}

// Popular returns the most liked films. See ranking.Ranker.Popular.
func (c *Catalog) Popular(ctx context.Context, count int, genreID *int64, year *int) ([]domain.Film, error) {
	ids, err := c.ranker.Popular(ctx, count, genreID, year)
	if err != nil {
		return nil, err
	}
	return c.byIDs(ctx, ids)
}

// Recommendations returns the enriched recommendations for userID.
func (c *Catalog) Recommendations(ctx context.Context, userID int64) ([]domain.Film, error) {
	ids, err := c.recommend.Recommend(ctx, userID)
	if err != nil {
		return nil, err
	}
	return c.byIDs(ctx, ids)
}

// ByDirector returns the director's films sorted by "year" or "likes".
func (c *Catalog) ByDirector(ctx context.Context, directorID int64, sortBy string) ([]domain.Film, error) {
	ids, err := c.ranker.ByDirector(ctx, directorID, sortBy)
	if err != nil {
		return nil, err
	}
	return c.byIDs(ctx, ids)
}

// Common returns films liked by both users, most liked first.
func (c *Catalog) Common(ctx context.Context, userID, friendID int64) ([]domain.Film, error) {
	ids, err := c.ranker.Common(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	return c.byIDs(ctx, ids)
}

func (c *Catalog) byIDs(ctx context.Context, ids []int64) ([]domain.Film, error) {
	if len(ids) == 0 {
		return []domain.Film{}, nil
	}
	films, err := c.films.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := c.assembler.EnrichSlice(ctx, films); err != nil {
		return nil, err
	}
	return films, nil
}
