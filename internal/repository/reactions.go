package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinesignal/internal/domain"
)

// ReactionsRepository stores review reactions and keeps reviews.useful in step.
type ReactionsRepository struct {
	pool *pgxpool.Pool
}

// Apply runs one reaction transition inside a transaction. The review row is
// locked first, so transitions on the same review are serialized and the
// read-current/write-next sequence cannot interleave for one (review, user) pair.
func (r *ReactionsRepository) Apply(ctx context.Context, reviewID, userID int64, fn ReactionFunc) (ReactionOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return ReactionOutcome{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var useful int
	err = tx.QueryRow(ctx, `SELECT useful FROM reviews WHERE review_id = $1 FOR UPDATE`, reviewID).Scan(&useful)
	if err != nil {
		return ReactionOutcome{}, mapError(err, "review", reviewID)
	}

	current, err := readReaction(ctx, tx, reviewID, userID)
	if err != nil {
		return ReactionOutcome{}, err
	}

	next, delta := fn(current)
	outcome := ReactionOutcome{Previous: current, Current: next, Delta: delta, Useful: useful}

	if next != current {
		if err := writeReaction(ctx, tx, reviewID, userID, current, next); err != nil {
			return ReactionOutcome{}, err
		}
	}

	if delta != 0 {
		err = tx.QueryRow(ctx, `
            UPDATE reviews SET useful = useful + $1
            WHERE review_id = $2
            RETURNING useful
        `, delta, reviewID).Scan(&outcome.Useful)
		if err != nil {
			return ReactionOutcome{}, mapError(err, "review", reviewID)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ReactionOutcome{}, err
	}
	return outcome, nil
}

// Get returns the current reaction of userID on reviewID.
func (r *ReactionsRepository) Get(ctx context.Context, reviewID, userID int64) (domain.Reaction, error) {
	return readReaction(ctx, r.pool, reviewID, userID)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func readReaction(ctx context.Context, q queryRower, reviewID, userID int64) (domain.Reaction, error) {
	var isLike bool
	err := q.QueryRow(ctx, `
        SELECT is_like FROM review_reactions
        WHERE review_id = $1 AND user_id = $2
    `, reviewID, userID).Scan(&isLike)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ReactionNone, nil
		}
		return domain.ReactionNone, err
	}
	if isLike {
		return domain.ReactionLiked, nil
	}
	return domain.ReactionDisliked, nil
}

func writeReaction(ctx context.Context, tx pgx.Tx, reviewID, userID int64, current, next domain.Reaction) error {
	var err error
	switch {
	case next == domain.ReactionNone:
		_, err = tx.Exec(ctx, `DELETE FROM review_reactions WHERE review_id = $1 AND user_id = $2`, reviewID, userID)
	case current == domain.ReactionNone:
		_, err = tx.Exec(ctx, `
            INSERT INTO review_reactions (review_id, user_id, is_like)
            VALUES ($1,$2,$3)
        `, reviewID, userID, next == domain.ReactionLiked)
	default:
		_, err = tx.Exec(ctx, `
            UPDATE review_reactions SET is_like = $3
            WHERE review_id = $1 AND user_id = $2
        `, reviewID, userID, next == domain.ReactionLiked)
	}
	if err != nil {
		mapped := mapError(err, "user", userID)
		if errors.Is(mapped, domain.ErrConflict) {
			return fmt.Errorf("reaction on review %d by user %d: %w", reviewID, userID, domain.ErrConflict)
		}
		return mapped
	}
	return nil
}
