// Package reaction implements the per (review, user) reaction state machine
// and keeps each review's usefulness as a running total.
package reaction

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/feed"
	"github.com/Clark-Hu/cinesignal/internal/metrics"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

// Op is a reaction operation requested by a user.
type Op int

const (
	AddLike Op = iota
	AddDislike
	DeleteLike
	DeleteDislike
)

func (op Op) String() string {
	switch op {
	case AddLike:
		return "add_like"
	case AddDislike:
		return "add_dislike"
	case DeleteLike:
		return "delete_like"
	case DeleteDislike:
		return "delete_dislike"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// feedOperation maps add operations to ADD and delete operations to REMOVE.
func (op Op) feedOperation() domain.Operation {
	if op == DeleteLike || op == DeleteDislike {
		return domain.OperationRemove
	}
	return domain.OperationAdd
}

// Transition returns the next state and usefulness delta for op applied to
// current. Delete operations only act on their exact matching state.
func Transition(current domain.Reaction, op Op) (domain.Reaction, int) {
	switch op {
	case AddLike:
		switch current {
		case domain.ReactionNone:
			return domain.ReactionLiked, 1
		case domain.ReactionDisliked:
			return domain.ReactionLiked, 2
		}
	case AddDislike:
		switch current {
		case domain.ReactionNone:
			return domain.ReactionDisliked, -1
		case domain.ReactionLiked:
			return domain.ReactionDisliked, -2
		}
	case DeleteLike:
		if current == domain.ReactionLiked {
			return domain.ReactionNone, -1
		}
	case DeleteDislike:
		if current == domain.ReactionDisliked {
			return domain.ReactionNone, 1
		}
	}
	return current, 0
}

// Engine applies reaction operations through a ReactionRepository.
type Engine struct {
	reactions repository.ReactionRepository
	sink      feed.Sink
	logger    zerolog.Logger
}

// New builds an Engine. A nil sink disables feed emission.
func New(reactions repository.ReactionRepository, sink feed.Sink, logger zerolog.Logger) *Engine {
	if sink == nil {
		sink = feed.Discard{}
	}
	return &Engine{
		reactions: reactions,
		sink:      sink,
		logger:    logger.With().Str("component", "reaction").Logger(),
	}
}

func (e *Engine) AddLike(ctx context.Context, reviewID, userID int64) (repository.ReactionOutcome, error) {
	return e.Apply(ctx, reviewID, userID, AddLike)
}

func (e *Engine) AddDislike(ctx context.Context, reviewID, userID int64) (repository.ReactionOutcome, error) {
	return e.Apply(ctx, reviewID, userID, AddDislike)
}

func (e *Engine) DeleteLike(ctx context.Context, reviewID, userID int64) (repository.ReactionOutcome, error) {
	return e.Apply(ctx, reviewID, userID, DeleteLike)
}

func (e *Engine) DeleteDislike(ctx context.Context, reviewID, userID int64) (repository.ReactionOutcome, error) {
	return e.Apply(ctx, reviewID, userID, DeleteDislike)
}

// Apply runs op for (reviewID, userID). No-op transitions succeed and are
// logged. Every call that reaches storage emits one feed event.
func (e *Engine) Apply(ctx context.Context, reviewID, userID int64, op Op) (repository.ReactionOutcome, error) {
	outcome, err := e.reactions.Apply(ctx, reviewID, userID, func(current domain.Reaction) (domain.Reaction, int) {
		return Transition(current, op)
	})
	if err != nil {
		metrics.ReactionTransitions.WithLabelValues(op.String(), "error").Inc()
		return repository.ReactionOutcome{}, err
	}

	log := e.logger.Debug().
		Int64("review_id", reviewID).
		Int64("user_id", userID).
		Str("op", op.String()).
		Stringer("from", outcome.Previous).
		Stringer("to", outcome.Current).
		Int("useful", outcome.Useful)
	if outcome.Previous == outcome.Current && outcome.Delta == 0 {
		metrics.ReactionTransitions.WithLabelValues(op.String(), "noop").Inc()
		log.Msg("reaction unchanged")
	} else {
		metrics.ReactionTransitions.WithLabelValues(op.String(), "applied").Inc()
		log.Int("delta", outcome.Delta).Msg("reaction applied")
	}

	feed.Emit(ctx, e.logger, e.sink, userID, domain.EventLike, op.feedOperation(), reviewID)
	return outcome, nil
}

// Current returns the stored reaction of userID on reviewID.
func (e *Engine) Current(ctx context.Context, reviewID, userID int64) (domain.Reaction, error) {
	return e.reactions.Get(ctx, reviewID, userID)
}
