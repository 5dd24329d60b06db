package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinesignal/internal/domain"
)

// LikesRepository stores (film, user) like pairs.
type LikesRepository struct {
	pool *pgxpool.Pool
}

// Add inserts the pair. The primary key on (film_id, user_id) turns a
// duplicate, including a concurrent one, into domain.ErrConflict.
func (r *LikesRepository) Add(ctx context.Context, filmID, userID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO likes (film_id, user_id) VALUES ($1,$2)`, filmID, userID)
	if err != nil {
		mapped := mapError(err, "film or user", filmID)
		if errors.Is(mapped, domain.ErrConflict) {
			return domain.Conflict("film already liked by this user")
		}
		return mapped
	}
	return nil
}

// Remove deletes the pair and reports a conflict when nothing was deleted.
func (r *LikesRepository) Remove(ctx context.Context, filmID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM likes WHERE film_id = $1 AND user_id = $2`, filmID, userID)
	if err != nil {
		return mapError(err, "film or user", filmID)
	}
	if tag.RowsAffected() == 0 {
		return domain.Conflict("like does not exist")
	}
	return nil
}

// Exists reports whether userID likes filmID.
func (r *LikesRepository) Exists(ctx context.Context, filmID, userID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM likes WHERE film_id = $1 AND user_id = $2)`, filmID, userID).Scan(&exists)
	return exists, err
}

// UsersByFilm returns the ids of users liking filmID.
func (r *LikesRepository) UsersByFilm(ctx context.Context, filmID int64) (domain.IDSet, error) {
	return r.idSet(ctx, `SELECT user_id FROM likes WHERE film_id = $1`, filmID)
}

// FilmsByUser returns the ids of films liked by userID.
func (r *LikesRepository) FilmsByUser(ctx context.Context, userID int64) (domain.IDSet, error) {
	return r.idSet(ctx, `SELECT film_id FROM likes WHERE user_id = $1`, userID)
}

// UsersByFilmIDs loads likers for many films in one query.
func (r *LikesRepository) UsersByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64]domain.IDSet, error) {
	result := make(map[int64]domain.IDSet)
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT film_id, user_id FROM likes WHERE film_id = ANY($1)`, idArray(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filmID, userID int64
		if err := rows.Scan(&filmID, &userID); err != nil {
			return nil, err
		}
		set, ok := result[filmID]
		if !ok {
			set = domain.NewIDSet()
			result[filmID] = set
		}
		set.Add(userID)
	}
	return result, rows.Err()
}

// Overlaps counts shared liked films between userID and every other user.
func (r *LikesRepository) Overlaps(ctx context.Context, userID int64) (map[int64]int, error) {
	const query = `
        SELECT other.user_id, COUNT(*)::int8
        FROM likes AS mine
        JOIN likes AS other ON other.film_id = mine.film_id AND other.user_id <> mine.user_id
        WHERE mine.user_id = $1
        GROUP BY other.user_id
    `
	return r.counts(ctx, query, userID)
}

// Counts returns like counts for the given films; films without likes are absent.
func (r *LikesRepository) Counts(ctx context.Context, ids domain.IDSet) (map[int64]int, error) {
	if len(ids) == 0 {
		return map[int64]int{}, nil
	}
	const query = `
        SELECT film_id, COUNT(*)::int8
        FROM likes
        WHERE film_id = ANY($1)
        GROUP BY film_id
    `
	return r.counts(ctx, query, idArray(ids))
}

// CountsFiltered counts likes for every film matching filter, zero included.
func (r *LikesRepository) CountsFiltered(ctx context.Context, filter PopularFilter) (map[int64]int, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.GenreID != nil {
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM film_genres AS fg WHERE fg.film_id = f.film_id AND fg.genre_id = %s)",
			arg(*filter.GenreID)))
	}
	if filter.Year != nil {
		where = append(where, fmt.Sprintf("EXTRACT(YEAR FROM f.release_date) = %s", arg(*filter.Year)))
	}

	var query strings.Builder
	query.WriteString("SELECT f.film_id, COUNT(l.user_id)::int8 FROM films AS f LEFT JOIN likes AS l ON l.film_id = f.film_id")
	if len(where) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(where, " AND "))
	}
	query.WriteString(" GROUP BY f.film_id")

	return r.counts(ctx, query.String(), args...)
}

func (r *LikesRepository) idSet(ctx context.Context, query string, args ...interface{}) (domain.IDSet, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := domain.NewIDSet()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set.Add(id)
	}
	return set, rows.Err()
}

func (r *LikesRepository) counts(ctx context.Context, query string, args ...interface{}) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int64]int)
	for rows.Next() {
		var id, count int64
		if err := rows.Scan(&id, &count); err != nil {
			return nil, err
		}
		result[id] = int(count)
	}
	return result, rows.Err()
}
