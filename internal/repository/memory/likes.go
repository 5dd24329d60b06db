package memory

import (
	"context"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

// Likes implements repository.LikeRepository. The check and the insert run
// under one write lock, which plays the role of the unique constraint.
type Likes struct {
	s *Store
}

func (r *Likes) Add(_ context.Context, filmID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.films[filmID]; !ok {
		return domain.NotFound("film", filmID)
	}
	if _, ok := r.s.users[userID]; !ok {
		return domain.NotFound("user", userID)
	}
	key := likeKey{filmID: filmID, userID: userID}
	if _, ok := r.s.likes[key]; ok {
		return domain.Conflict("film already liked by this user")
	}
	r.s.likes[key] = struct{}{}
	return nil
}

func (r *Likes) Remove(_ context.Context, filmID, userID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := likeKey{filmID: filmID, userID: userID}
	if _, ok := r.s.likes[key]; !ok {
		return domain.Conflict("like does not exist")
	}
	delete(r.s.likes, key)
	return nil
}

func (r *Likes) Exists(_ context.Context, filmID, userID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.likes[likeKey{filmID: filmID, userID: userID}]
	return ok, nil
}

func (r *Likes) UsersByFilm(_ context.Context, filmID int64) (domain.IDSet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := domain.NewIDSet()
	for key := range r.s.likes {
		if key.filmID == filmID {
			users.Add(key.userID)
		}
	}
	return users, nil
}

func (r *Likes) UsersByFilmIDs(_ context.Context, ids domain.IDSet) (map[int64]domain.IDSet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[int64]domain.IDSet)
	if len(ids) == 0 {
		return result, nil
	}
	for key := range r.s.likes {
		if !ids.Has(key.filmID) {
			continue
		}
		set, ok := result[key.filmID]
		if !ok {
			set = domain.NewIDSet()
			result[key.filmID] = set
		}
		set.Add(key.userID)
	}
	return result, nil
}

func (r *Likes) FilmsByUser(_ context.Context, userID int64) (domain.IDSet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.filmsByUserLocked(userID), nil
}

func (r *Likes) Overlaps(_ context.Context, userID int64) (map[int64]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	mine := r.filmsByUserLocked(userID)
	result := make(map[int64]int)
	for key := range r.s.likes {
		if key.userID != userID && mine.Has(key.filmID) {
			result[key.userID]++
		}
	}
	return result, nil
}

func (r *Likes) Counts(_ context.Context, ids domain.IDSet) (map[int64]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[int64]int)
	for key := range r.s.likes {
		if ids.Has(key.filmID) {
			result[key.filmID]++
		}
	}
	return result, nil
}

func (r *Likes) CountsFiltered(_ context.Context, filter repository.PopularFilter) (map[int64]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[int64]int)
	for id, film := range r.s.films {
		if filter.GenreID != nil && !r.s.filmGenre[id].Has(*filter.GenreID) {
			continue
		}
		if filter.Year != nil && film.ReleaseYear() != *filter.Year {
			continue
		}
		result[id] = 0
	}
	for key := range r.s.likes {
		if _, ok := result[key.filmID]; ok {
			result[key.filmID]++
		}
	}
	return result, nil
}

func (r *Likes) filmsByUserLocked(userID int64) domain.IDSet {
	films := domain.NewIDSet()
	for key := range r.s.likes {
		if key.userID == userID {
			films.Add(key.filmID)
		}
	}
	return films
}
