// Package ranking orders films by like count.
package ranking

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

// DefaultPopularCount applies when the caller passes no positive count.
const DefaultPopularCount = math.MaxInt32

// Sort keys accepted by ByDirector.
const (
	SortByYear  = "year"
	SortByLikes = "likes"
)

// Ranker produces ordered film-id lists from like counts.
type Ranker struct {
	films        repository.FilmRepository
	likes        repository.LikeRepository
	defaultCount int
	logger       zerolog.Logger
}

// Options tune a Ranker.
type Options struct {
	// DefaultCount replaces DefaultPopularCount when positive.
	DefaultCount int
	Logger       zerolog.Logger
}

// New builds a Ranker.
func New(films repository.FilmRepository, likes repository.LikeRepository, opts Options) *Ranker {
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = DefaultPopularCount
	}
	return &Ranker{
		films:        films,
		likes:        likes,
		defaultCount: opts.DefaultCount,
		logger:       opts.Logger.With().Str("component", "ranking").Logger(),
	}
}

// Order sorts ids by counts descending, ties by id ascending. Ids missing
// from counts rank as zero likes.
func Order(ids []int64, counts map[int64]int) []int64 {
	out := append([]int64(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := counts[out[i]], counts[out[j]]
		if ci != cj {
			return ci > cj
		}
		return out[i] < out[j]
	})
	return out
}

// Popular returns up to count film ids, most liked first. genreID and year
// restrict the candidate films when non-nil.
func (r *Ranker) Popular(ctx context.Context, count int, genreID *int64, year *int) ([]int64, error) {
	if count <= 0 {
		count = r.defaultCount
	}
	counts, err := r.likes.CountsFiltered(ctx, repository.PopularFilter{GenreID: genreID, Year: year})
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	ranked := Order(ids, counts)
	if len(ranked) > count {
		ranked = ranked[:count]
	}
	r.logger.Debug().Int("count", count).Int("candidates", len(counts)).Int("returned", len(ranked)).Msg("popular ranked")
	return ranked, nil
}

// ByDirector returns the director's films sorted by release year or by likes.
func (r *Ranker) ByDirector(ctx context.Context, directorID int64, sortBy string) ([]int64, error) {
	if sortBy != SortByYear && sortBy != SortByLikes {
		return nil, domain.InvalidArgument("unknown sort key " + sortBy + ", expected year or likes")
	}
	exists, err := r.films.DirectorExists(ctx, directorID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NotFound("director", directorID)
	}

	films, err := r.films.FilmsByDirector(ctx, directorID)
	if err != nil {
		return nil, err
	}
	if sortBy == SortByYear {
		sort.SliceStable(films, func(i, j int) bool {
			yi, yj := films[i].ReleaseYear(), films[j].ReleaseYear()
			if yi != yj {
				return yi < yj
			}
			return films[i].ID < films[j].ID
		})
	}
	ids := make([]int64, len(films))
	for i, film := range films {
		ids[i] = film.ID
	}
	if sortBy == SortByYear {
		return ids, nil
	}

	counts, err := r.likes.Counts(ctx, domain.NewIDSet(ids...))
	if err != nil {
		return nil, err
	}
	return Order(ids, counts), nil
}

// Common returns films liked by both users, most liked first.
func (r *Ranker) Common(ctx context.Context, userID, friendID int64) ([]int64, error) {
	mine, err := r.likes.FilmsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	theirs, err := r.likes.FilmsByUser(ctx, friendID)
	if err != nil {
		return nil, err
	}

	shared := domain.NewIDSet()
	for id := range mine {
		if theirs.Has(id) {
			shared.Add(id)
		}
	}
	if len(shared) == 0 {
		return []int64{}, nil
	}
	counts, err := r.likes.Counts(ctx, shared)
	if err != nil {
		return nil, err
	}
	return Order(shared.Sorted(), counts), nil
}
