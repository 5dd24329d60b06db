package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

const dateLayout = "2006-01-02"

type filmCreateRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ReleaseDate string  `json:"releaseDate"`
	Duration    int     `json:"duration"`
	Mpa         *idRef  `json:"mpa"`
	Genres      []idRef `json:"genres"`
	Directors   []idRef `json:"directors"`
}

type idRef struct {
	ID int64 `json:"id"`
}

type directorCreateRequest struct {
	Name string `json:"name"`
}

type filmResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	ReleaseDate string            `json:"releaseDate"`
	Duration    int               `json:"duration"`
	Mpa         *domain.Mpa       `json:"mpa,omitempty"`
	Genres      []domain.Genre    `json:"genres"`
	Directors   []domain.Director `json:"directors"`
	Likes       []int64           `json:"likes"`
	Reviews     []int64           `json:"reviews"`
}

func toFilmResponse(film domain.Film) filmResponse {
	resp := filmResponse{
		ID:          film.ID,
		Name:        film.Name,
		Description: film.Description,
		ReleaseDate: film.ReleaseDate.Format(dateLayout),
		Duration:    film.Duration,
		Mpa:         film.Mpa,
		Genres:      film.Genres,
		Directors:   film.Directors,
		Likes:       film.Likes.Sorted(),
		Reviews:     film.ReviewIDs.Sorted(),
	}
	if resp.Genres == nil {
		resp.Genres = []domain.Genre{}
	}
	if resp.Directors == nil {
		resp.Directors = []domain.Director{}
	}
	return resp
}

func toFilmResponses(films []domain.Film) []filmResponse {
	out := make([]filmResponse, 0, len(films))
	for _, film := range films {
		out = append(out, toFilmResponse(film))
	}
	return out
}

func (s *Server) handleListFilms(w http.ResponseWriter, r *http.Request) {
	films, err := s.svc.Catalog.Films(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFilmResponses(films))
}

func (s *Server) handleGetFilm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	film, err := s.svc.Catalog.Film(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFilmResponse(film))
}

func (s *Server) handleCreateFilm(w http.ResponseWriter, r *http.Request) {
	var req filmCreateRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, err)
		return
	}
	params, err := req.params()
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
		return
	}

	created, err := s.svc.Repo.Films.Create(r.Context(), params)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	film, err := s.svc.Catalog.Film(r.Context(), created.ID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toFilmResponse(film))
}

func (req filmCreateRequest) params() (repository.FilmCreateParams, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return repository.FilmCreateParams{}, fmt.Errorf("name is required")
	}
	releaseDate, err := time.Parse(dateLayout, req.ReleaseDate)
	if err != nil {
		return repository.FilmCreateParams{}, fmt.Errorf("releaseDate must follow YYYY-MM-DD format")
	}
	if req.Duration <= 0 {
		return repository.FilmCreateParams{}, fmt.Errorf("duration must be positive")
	}

	params := repository.FilmCreateParams{
		Name:        name,
		Description: req.Description,
		ReleaseDate: releaseDate,
		Duration:    req.Duration,
	}
	if req.Mpa != nil {
		mpaID := req.Mpa.ID
		params.MpaID = &mpaID
	}
	for _, g := range req.Genres {
		params.GenreIDs = append(params.GenreIDs, g.ID)
	}
	for _, d := range req.Directors {
		params.DirectorIDs = append(params.DirectorIDs, d.ID)
	}
	return params, nil
}

func (s *Server) handleCreateDirector(w http.ResponseWriter, r *http.Request) {
	var req directorCreateRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required")
		return
	}
	director, err := s.svc.Repo.Films.CreateDirector(r.Context(), name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, director)
}

func (s *Server) handleAddLike(w http.ResponseWriter, r *http.Request) {
	s.mutateLike(w, r, s.svc.Signals.AddLike)
}

func (s *Server) handleRemoveLike(w http.ResponseWriter, r *http.Request) {
	s.mutateLike(w, r, s.svc.Signals.RemoveLike)
}

// mutateLike checks that both ends of the pair exist before touching the
// signal store, which does not validate references itself.
func (s *Server) mutateLike(w http.ResponseWriter, r *http.Request, mutate func(ctx context.Context, filmID, userID int64) error) {
	filmID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	userID, err := pathID(r, "userId")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	ctx := r.Context()
	if err := s.requireFilm(ctx, filmID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.requireUser(ctx, userID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := mutate(ctx, filmID, userID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	pq, err := parsePopularQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	films, err := s.svc.Catalog.Popular(r.Context(), pq.Count, pq.GenreID, pq.Year)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFilmResponses(films))
}

func (s *Server) handleFilmsByDirector(w http.ResponseWriter, r *http.Request) {
	directorID, err := pathID(r, "directorId")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	sortBy := strings.TrimSpace(r.URL.Query().Get("sortBy"))
	if sortBy == "" {
		sortBy = "year"
	}
	films, err := s.svc.Catalog.ByDirector(r.Context(), directorID, sortBy)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFilmResponses(films))
}

func (s *Server) handleCommon(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID, err := queryID(query, "userId")
	if err != nil || userID == nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "userId is required")
		return
	}
	friendID, err := queryID(query, "friendId")
	if err != nil || friendID == nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "friendId is required")
		return
	}

	ctx := r.Context()
	for _, id := range []int64{*userID, *friendID} {
		if err := s.requireUser(ctx, id); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
	}
	films, err := s.svc.Catalog.Common(ctx, *userID, *friendID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFilmResponses(films))
}

func (s *Server) requireFilm(ctx context.Context, id int64) error {
	ok, err := s.svc.Repo.Films.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("film", id)
	}
	return nil
}

func (s *Server) requireUser(ctx context.Context, id int64) error {
	ok, err := s.svc.Repo.Users.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFound("user", id)
	}
	return nil
}
