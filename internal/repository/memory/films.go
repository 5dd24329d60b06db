package memory

import (
	"context"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

// Films implements repository.FilmRepository.
type Films struct {
	s *Store
}

func (r *Films) Create(_ context.Context, params repository.FilmCreateParams) (domain.Film, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	film := domain.Film{
		Name:        params.Name,
		Description: params.Description,
		ReleaseDate: params.ReleaseDate,
		Duration:    params.Duration,
	}
	if params.MpaID != nil {
		mpa, ok := r.s.mpa[*params.MpaID]
		if !ok {
			return domain.Film{}, domain.NotFound("mpa", *params.MpaID)
		}
		film.Mpa = &mpa
	}
	for _, id := range params.GenreIDs {
		if _, ok := r.s.genres[id]; !ok {
			return domain.Film{}, domain.NotFound("genre", id)
		}
	}
	for _, id := range params.DirectorIDs {
		if _, ok := r.s.directors[id]; !ok {
			return domain.Film{}, domain.NotFound("director", id)
		}
	}

	film.ID = r.s.filmSeq.Add(1)
	r.s.films[film.ID] = film
	r.s.filmGenre[film.ID] = domain.NewIDSet(params.GenreIDs...)
	r.s.filmDir[film.ID] = domain.NewIDSet(params.DirectorIDs...)
	return copyFilm(film), nil
}

func (r *Films) Get(_ context.Context, id int64) (domain.Film, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	film, ok := r.s.films[id]
	if !ok {
		return domain.Film{}, domain.NotFound("film", id)
	}
	return copyFilm(film), nil
}

func (r *Films) ListAll(_ context.Context) ([]domain.Film, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	films := make([]domain.Film, 0, len(r.s.films))
	for _, id := range sortedKeys(r.s.films) {
		films = append(films, copyFilm(r.s.films[id]))
	}
	return films, nil
}

func (r *Films) ListByIDs(_ context.Context, ids []int64) ([]domain.Film, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	films := make([]domain.Film, 0, len(ids))
	for _, id := range ids {
		if film, ok := r.s.films[id]; ok {
			films = append(films, copyFilm(film))
		}
	}
	return films, nil
}

func (r *Films) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.films[id]
	return ok, nil
}

func (r *Films) GenresByFilmIDs(_ context.Context, ids domain.IDSet) (map[int64][]domain.Genre, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[int64][]domain.Genre)
	for filmID := range ids {
		for _, genreID := range r.s.filmGenre[filmID].Sorted() {
			result[filmID] = append(result[filmID], r.s.genres[genreID])
		}
	}
	return result, nil
}

func (r *Films) DirectorsByFilmIDs(_ context.Context, ids domain.IDSet) (map[int64][]domain.Director, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[int64][]domain.Director)
	for filmID := range ids {
		for _, directorID := range r.s.filmDir[filmID].Sorted() {
			result[filmID] = append(result[filmID], r.s.directors[directorID])
		}
	}
	return result, nil
}

func (r *Films) FilmsByDirector(_ context.Context, directorID int64) ([]domain.Film, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	films := make([]domain.Film, 0)
	for _, id := range sortedKeys(r.s.films) {
		if r.s.filmDir[id].Has(directorID) {
			films = append(films, copyFilm(r.s.films[id]))
		}
	}
	return films, nil
}

func (r *Films) CreateDirector(_ context.Context, name string) (domain.Director, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	director := domain.Director{ID: r.s.directorSeq.Add(1), Name: name}
	r.s.directors[director.ID] = director
	return director, nil
}

func (r *Films) DirectorExists(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.directors[id]
	return ok, nil
}

// copyFilm detaches the returned value from stored pointers.
func copyFilm(film domain.Film) domain.Film {
	if film.Mpa != nil {
		mpa := *film.Mpa
		film.Mpa = &mpa
	}
	return film
}
