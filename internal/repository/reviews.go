package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinesignal/internal/domain"
)

// ReviewsRepository persists reviews. useful is only written by ReactionsRepository.
type ReviewsRepository struct {
	pool *pgxpool.Pool
}

const reviewColumns = `review_id, film_id, user_id, content, is_positive, useful`

// Create inserts a review with zero usefulness.
func (r *ReviewsRepository) Create(ctx context.Context, params ReviewCreateParams) (domain.Review, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO reviews (content, is_positive, user_id, film_id)
        VALUES ($1,$2,$3,$4)
        RETURNING `+reviewColumns,
		params.Content, params.IsPositive, params.UserID, params.FilmID)
	review, err := scanReview(row)
	if err != nil {
		return domain.Review{}, mapError(err, "film or user", params.FilmID)
	}
	return review, nil
}

// Get fetches a review by id.
func (r *ReviewsRepository) Get(ctx context.Context, id int64) (domain.Review, error) {
	review, err := scanReview(r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE review_id = $1`, id))
	if err != nil {
		return domain.Review{}, mapError(err, "review", id)
	}
	return review, nil
}

// Update changes content and polarity. useful is not part of the statement.
func (r *ReviewsRepository) Update(ctx context.Context, params ReviewUpdateParams) (domain.Review, error) {
	row := r.pool.QueryRow(ctx, `
        UPDATE reviews SET content = $1, is_positive = $2
        WHERE review_id = $3
        RETURNING `+reviewColumns,
		params.Content, params.IsPositive, params.ID)
	review, err := scanReview(row)
	if err != nil {
		return domain.Review{}, mapError(err, "review", params.ID)
	}
	return review, nil
}

// Delete removes a review; review_reactions rows go with it through ON DELETE CASCADE.
func (r *ReviewsRepository) Delete(ctx context.Context, id int64) (domain.Review, error) {
	row := r.pool.QueryRow(ctx, `DELETE FROM reviews WHERE review_id = $1 RETURNING `+reviewColumns, id)
	review, err := scanReview(row)
	if err != nil {
		return domain.Review{}, mapError(err, "review", id)
	}
	return review, nil
}

// List returns up to count reviews, most useful first.
func (r *ReviewsRepository) List(ctx context.Context, filmID *int64, count int) ([]domain.Review, error) {
	args := make([]interface{}, 0, 2)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	var query strings.Builder
	query.WriteString(`SELECT ` + reviewColumns + ` FROM reviews`)
	if filmID != nil {
		query.WriteString(" WHERE film_id = " + arg(*filmID))
	}
	query.WriteString(" ORDER BY useful DESC, review_id ASC")
	if count > 0 {
		query.WriteString(" LIMIT " + arg(count))
	}

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// IDsByFilmIDs loads review ids for many films in one query.
func (r *ReviewsRepository) IDsByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64]domain.IDSet, error) {
	result := make(map[int64]domain.IDSet)
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT film_id, review_id FROM reviews WHERE film_id = ANY($1)`, idArray(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filmID, reviewID int64
		if err := rows.Scan(&filmID, &reviewID); err != nil {
			return nil, err
		}
		set, ok := result[filmID]
		if !ok {
			set = domain.NewIDSet()
			result[filmID] = set
		}
		set.Add(reviewID)
	}
	return result, rows.Err()
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var review domain.Review
	err := row.Scan(&review.ID, &review.FilmID, &review.UserID, &review.Content, &review.IsPositive, &review.Useful)
	return review, err
}
