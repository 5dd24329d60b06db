package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/cinesignal/internal/domain"
)

// FilmsRepository provides persistence helpers for film entities.
type FilmsRepository struct {
	pool *pgxpool.Pool
}

const filmColumns = `
    f.film_id,
    f.film_name,
    f.description,
    f.release_date,
    f.duration,
    f.rating_id,
    r.rating_name
`

const filmFrom = ` FROM films AS f LEFT JOIN mpa_ratings AS r ON r.rating_id = f.rating_id`

// Create inserts a film with its genre and director links and returns the stored entity.
func (r *FilmsRepository) Create(ctx context.Context, params FilmCreateParams) (domain.Film, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Film{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx, `
        INSERT INTO films (film_name, description, release_date, duration, rating_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING film_id
    `, params.Name, params.Description, params.ReleaseDate, params.Duration, params.MpaID).Scan(&id)
	if err != nil {
		return domain.Film{}, mapError(err, "mpa", derefInt64(params.MpaID))
	}
	if id == 0 {
		return domain.Film{}, fmt.Errorf("insert film returned no id: %w", domain.ErrInternal)
	}

	if len(params.GenreIDs) > 0 {
		_, err = tx.Exec(ctx, `
            INSERT INTO film_genres (film_id, genre_id)
            SELECT $1, g FROM unnest($2::bigint[]) AS g
            ON CONFLICT DO NOTHING
        `, id, params.GenreIDs)
		if err != nil {
			return domain.Film{}, mapError(err, "genre", 0)
		}
	}
	if len(params.DirectorIDs) > 0 {
		_, err = tx.Exec(ctx, `
            INSERT INTO film_directors (film_id, director_id)
            SELECT $1, d FROM unnest($2::bigint[]) AS d
            ON CONFLICT DO NOTHING
        `, id, params.DirectorIDs)
		if err != nil {
			return domain.Film{}, mapError(err, "director", 0)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Film{}, err
	}
	return r.Get(ctx, id)
}

// Get fetches a film by its identifier.
func (r *FilmsRepository) Get(ctx context.Context, id int64) (domain.Film, error) {
	query := `SELECT ` + filmColumns + filmFrom + ` WHERE f.film_id = $1`
	film, err := scanFilm(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return domain.Film{}, mapError(err, "film", id)
	}
	return film, nil
}

// ListAll returns every film ordered by id.
func (r *FilmsRepository) ListAll(ctx context.Context) ([]domain.Film, error) {
	query := `SELECT ` + filmColumns + filmFrom + ` ORDER BY f.film_id`
	return r.queryFilms(ctx, query)
}

// ListByIDs returns films in the order of ids. Unknown ids are skipped.
func (r *FilmsRepository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Film, error) {
	if len(ids) == 0 {
		return []domain.Film{}, nil
	}
	query := `SELECT ` + filmColumns + filmFrom + ` WHERE f.film_id = ANY($1)`
	films, err := r.queryFilms(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Film, len(films))
	for _, film := range films {
		byID[film.ID] = film
	}
	ordered := make([]domain.Film, 0, len(ids))
	for _, id := range ids {
		if film, ok := byID[id]; ok {
			ordered = append(ordered, film)
		}
	}
	return ordered, nil
}

// Exists reports whether a film row is present.
func (r *FilmsRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM films WHERE film_id = $1)`, id).Scan(&exists)
	return exists, err
}

// GenresByFilmIDs loads the genres of many films in one query.
func (r *FilmsRepository) GenresByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64][]domain.Genre, error) {
	result := make(map[int64][]domain.Genre)
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, `
        SELECT fg.film_id, g.genre_id, g.genre_name
        FROM film_genres AS fg
        JOIN genres AS g ON g.genre_id = fg.genre_id
        WHERE fg.film_id = ANY($1)
        ORDER BY fg.film_id, g.genre_id
    `, idArray(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filmID int64
		var genre domain.Genre
		if err := rows.Scan(&filmID, &genre.ID, &genre.Name); err != nil {
			return nil, err
		}
		result[filmID] = append(result[filmID], genre)
	}
	return result, rows.Err()
}

// DirectorsByFilmIDs loads the directors of many films in one query.
func (r *FilmsRepository) DirectorsByFilmIDs(ctx context.Context, ids domain.IDSet) (map[int64][]domain.Director, error) {
	result := make(map[int64][]domain.Director)
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.pool.Query(ctx, `
        SELECT fd.film_id, d.director_id, d.director_name
        FROM film_directors AS fd
        JOIN directors AS d ON d.director_id = fd.director_id
        WHERE fd.film_id = ANY($1)
        ORDER BY fd.film_id, d.director_id
    `, idArray(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filmID int64
		var director domain.Director
		if err := rows.Scan(&filmID, &director.ID, &director.Name); err != nil {
			return nil, err
		}
		result[filmID] = append(result[filmID], director)
	}
	return result, rows.Err()
}

// FilmsByDirector returns the base rows of every film credited to directorID.
func (r *FilmsRepository) FilmsByDirector(ctx context.Context, directorID int64) ([]domain.Film, error) {
	query := `SELECT ` + filmColumns + filmFrom + `
        JOIN film_directors AS fd ON fd.film_id = f.film_id
        WHERE fd.director_id = $1
        ORDER BY f.film_id`
	return r.queryFilms(ctx, query, directorID)
}

// CreateDirector inserts a director.
func (r *FilmsRepository) CreateDirector(ctx context.Context, name string) (domain.Director, error) {
	director := domain.Director{Name: name}
	err := r.pool.QueryRow(ctx, `INSERT INTO directors (director_name) VALUES ($1) RETURNING director_id`, name).Scan(&director.ID)
	if err != nil {
		return domain.Director{}, mapError(err, "director", 0)
	}
	return director, nil
}

// DirectorExists reports whether a director row is present.
func (r *FilmsRepository) DirectorExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM directors WHERE director_id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *FilmsRepository) queryFilms(ctx context.Context, query string, args ...interface{}) ([]domain.Film, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	films := make([]domain.Film, 0)
	for rows.Next() {
		film, err := scanFilm(rows)
		if err != nil {
			return nil, err
		}
		films = append(films, film)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return films, nil
}

func scanFilm(row pgx.Row) (domain.Film, error) {
	var (
		film        domain.Film
		releaseDate time.Time
		ratingID    *int64
		ratingName  *string
	)

	err := row.Scan(
		&film.ID,
		&film.Name,
		&film.Description,
		&releaseDate,
		&film.Duration,
		&ratingID,
		&ratingName,
	)
	if err != nil {
		return domain.Film{}, err
	}

	film.ReleaseDate = releaseDate
	if ratingID != nil {
		film.Mpa = &domain.Mpa{ID: *ratingID}
		if ratingName != nil {
			film.Mpa.Name = *ratingName
		}
	}
	return film, nil
}

func derefInt64(ptr *int64) int64 {
	if ptr == nil {
		return 0
	}
	return *ptr
}
