package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/store"
)

// PopularFilter restricts which films take part in a popularity ranking.
type PopularFilter struct {
	GenreID *int64
	Year    *int
}

// FilmRepository persists films and answers the batched relation lookups.
type FilmRepository interface {
	Create(ctx context.Context, params FilmCreateParams) (domain.Film, error)
	Get(ctx context.Context, id int64) (domain.Film, error)
	ListAll(ctx context.Context) ([]domain.Film, error)
	// ListByIDs returns the films in the order of ids, skipping unknown ids.
	ListByIDs(ctx context.Context, ids []int64) ([]domain.Film, error)
	Exists(ctx context.Context, id int64) (bool, error)
	GenresByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64][]domain.Genre, error)
	DirectorsByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64][]domain.Director, error)
	FilmsByDirector(ctx context.Context, directorID int64) ([]domain.Film, error)
	CreateDirector(ctx context.Context, name string) (domain.Director, error)
	DirectorExists(ctx context.Context, id int64) (bool, error)
}

// LikeRepository is the storage side of the like signal.
type LikeRepository interface {
	// Add records the pair; an existing pair yields domain.ErrConflict.
	Add(ctx context.Context, filmID, userID int64) error
	// Remove deletes the pair; a missing pair yields domain.ErrConflict.
	Remove(ctx context.Context, filmID, userID int64) error
	Exists(ctx context.Context, filmID, userID int64) (bool, error)
	UsersByFilm(ctx context.Context, filmID int64) (domain.IDSet, error)
	UsersByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64]domain.IDSet, error)
	FilmsByUser(ctx context.Context, userID int64) (domain.IDSet, error)
	// Overlaps counts, for every other user sharing at least one liked film
	// with userID, how many films they share.
	Overlaps(ctx context.Context, userID int64) (map[int64]int, error)
	// Counts returns like counts for ids; films without likes are absent.
	Counts(ctx context.Context, ids domain.IDSet) (map[int64]int, error)
	// CountsFiltered returns like counts for every film matching filter,
	// including films with zero likes.
	CountsFiltered(ctx context.Context, filter PopularFilter) (map[int64]int, error)
}

// ReactionFunc decides the next reaction state and the usefulness delta from
// the current state.
type ReactionFunc func(current domain.Reaction) (next domain.Reaction, delta int)

// ReactionOutcome reports what Apply did.
type ReactionOutcome struct {
	Previous domain.Reaction
	Current  domain.Reaction
	Delta    int
	Useful   int
}

// ReactionRepository stores per (review, user) reactions.
type ReactionRepository interface {
	// Apply reads the current reaction, stores the one returned by fn and adds
	// the delta to the review's usefulness as one atomic step per pair.
	Apply(ctx context.Context, reviewID, userID int64, fn ReactionFunc) (ReactionOutcome, error)
	Get(ctx context.Context, reviewID, userID int64) (domain.Reaction, error)
}

// ReviewRepository persists reviews. Usefulness is read-only here.
type ReviewRepository interface {
	Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error)
	Get(ctx context.Context, id int64) (domain.Review, error)
	// Update rewrites content and polarity, leaving usefulness as it is.
	Update(ctx context.Context, params ReviewUpdateParams) (domain.Review, error)
	// Delete removes the review with its reactions and returns the removed row.
	Delete(ctx context.Context, id int64) (domain.Review, error)
	// List orders by usefulness descending, id ascending. A nil filmID lists all films.
	List(ctx context.Context, filmID *int64, count int) ([]domain.Review, error)
	IDsByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64]domain.IDSet, error)
}

// UserRepository is the minimal user store backing existence checks.
type UserRepository interface {
	Create(ctx context.Context, params UserCreateParams) (domain.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// FeedRepository persists activity-feed records.
type FeedRepository interface {
	Append(ctx context.Context, event domain.FeedEvent) (domain.FeedEvent, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.FeedEvent, error)
}

// FilmCreateParams bundles the fields required to create a film.
type FilmCreateParams struct {
	Name        string
	Description string
	ReleaseDate time.Time
	Duration    int
	MpaID       *int64
	GenreIDs    []int64
	DirectorIDs []int64
}

// ReviewCreateParams bundles the fields required to create a review.
type ReviewCreateParams struct {
	FilmID     int64
	UserID     int64
	Content    string
	IsPositive bool
}

// ReviewUpdateParams carries the editable fields of a review.
type ReviewUpdateParams struct {
	ID         int64
	Content    string
	IsPositive bool
}

// UserCreateParams bundles the fields required to create a user.
type UserCreateParams struct {
	Email string
	Login string
	Name  string
}

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Films     FilmRepository
	Likes     LikeRepository
	Reactions ReactionRepository
	Reviews   ReviewRepository
	Users     UserRepository
	Feed      FeedRepository
}

// New constructs a Postgres-backed Repository from the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Films:     &FilmsRepository{pool: pool},
		Likes:     &LikesRepository{pool: pool},
		Reactions: &ReactionsRepository{pool: pool},
		Reviews:   &ReviewsRepository{pool: pool},
		Users:     &UsersRepository{pool: pool},
		Feed:      &FeedsRepository{pool: pool},
	}
}

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapError translates driver errors into domain error kinds.
func mapError(err error, entity string, id int64) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(entity, id)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrConflict)
		case pgForeignKeyViolation:
			return fmt.Errorf("%s references a missing row (%s): %w", entity, pgErr.ConstraintName, domain.ErrNotFound)
		}
	}
	return err
}

func idArray(ids domain.IDSet) []int64 {
	return ids.Sorted()
}
