package memory

import (
	"context"
	"sort"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

// Reviews implements repository.ReviewRepository.
type Reviews struct {
	s *Store
}

func (r *Reviews) Create(_ context.Context, params repository.ReviewCreateParams) (domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.films[params.FilmID]; !ok {
		return domain.Review{}, domain.NotFound("film", params.FilmID)
	}
	if _, ok := r.s.users[params.UserID]; !ok {
		return domain.Review{}, domain.NotFound("user", params.UserID)
	}
	review := domain.Review{
		ID:         r.s.reviewSeq.Add(1),
		FilmID:     params.FilmID,
		UserID:     params.UserID,
		Content:    params.Content,
		IsPositive: params.IsPositive,
	}
	r.s.reviews[review.ID] = review
	return review, nil
}

func (r *Reviews) Get(_ context.Context, id int64) (domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	review, ok := r.s.reviews[id]
	if !ok {
		return domain.Review{}, domain.NotFound("review", id)
	}
	return review, nil
}

func (r *Reviews) Update(_ context.Context, params repository.ReviewUpdateParams) (domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	review, ok := r.s.reviews[params.ID]
	if !ok {
		return domain.Review{}, domain.NotFound("review", params.ID)
	}
	review.Content = params.Content
	review.IsPositive = params.IsPositive
	r.s.reviews[review.ID] = review
	return review, nil
}

// Delete drops the review and every reaction recorded on it.
func (r *Reviews) Delete(_ context.Context, id int64) (domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	review, ok := r.s.reviews[id]
	if !ok {
		return domain.Review{}, domain.NotFound("review", id)
	}
	delete(r.s.reviews, id)
	for key := range r.s.reactions {
		if key.reviewID == id {
			delete(r.s.reactions, key)
		}
	}
	return review, nil
}

func (r *Reviews) List(_ context.Context, filmID *int64, count int) ([]domain.Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	reviews := make([]domain.Review, 0, len(r.s.reviews))
	for _, review := range r.s.reviews {
		if filmID != nil && review.FilmID != *filmID {
			continue
		}
		reviews = append(reviews, review)
	}
	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].Useful != reviews[j].Useful {
			return reviews[i].Useful > reviews[j].Useful
		}
		return reviews[i].ID < reviews[j].ID
	})
	if count > 0 && len(reviews) > count {
		reviews = reviews[:count]
	}
	return reviews, nil
}

func (r *Reviews) IDsByFilmIDs(_ context.Context, ids domain.IDSet) (map[int64]domain.IDSet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[int64]domain.IDSet)
	for id, review := range r.s.reviews {
		if !ids.Has(review.FilmID) {
			continue
		}
		set, ok := result[review.FilmID]
		if !ok {
			set = domain.NewIDSet()
			result[review.FilmID] = set
		}
		set.Add(id)
	}
	return result, nil
}

// Reactions implements repository.ReactionRepository. Apply holds the store
// write lock for the whole read-decide-write step.
type Reactions struct {
	s *Store
}

func (r *Reactions) Apply(_ context.Context, reviewID, userID int64, fn repository.ReactionFunc) (repository.ReactionOutcome, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	review, ok := r.s.reviews[reviewID]
	if !ok {
		return repository.ReactionOutcome{}, domain.NotFound("review", reviewID)
	}
	key := reactionKey{reviewID: reviewID, userID: userID}
	current := r.s.reactions[key]

	next, delta := fn(current)
	if next != current {
		if _, ok := r.s.users[userID]; !ok {
			return repository.ReactionOutcome{}, domain.NotFound("user", userID)
		}
		if next == domain.ReactionNone {
			delete(r.s.reactions, key)
		} else {
			r.s.reactions[key] = next
		}
	}
	review.Useful += delta
	r.s.reviews[reviewID] = review

	return repository.ReactionOutcome{
		Previous: current,
		Current:  next,
		Delta:    delta,
		Useful:   review.Useful,
	}, nil
}

func (r *Reactions) Get(_ context.Context, reviewID, userID int64) (domain.Reaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.reactions[reactionKey{reviewID: reviewID, userID: userID}], nil
}
