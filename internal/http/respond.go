package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Clark-Hu/cinesignal/internal/domain"
)

const maxRequestBody = 1 << 20

// apiError is the body of every non-2xx response.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// readJSON decodes a single bounded JSON document into dst, rejecting
// fields the request type does not declare.
func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn().Err(err).Int("status", status).Msg("write response body")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, apiError{Code: code, Message: message})
}

// writeDecodeError reports a body readJSON could not accept. Empty, malformed
// or mistyped bodies are 422; anything else, such as an unknown field, is 400.
func (s *Server) writeDecodeError(w http.ResponseWriter, err error) {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	status, message := http.StatusBadRequest, "request body does not match the expected shape"
	switch {
	case errors.Is(err, io.EOF):
		status, message = http.StatusUnprocessableEntity, "request body is empty"
	case errors.As(err, &syntaxErr):
		status, message = http.StatusUnprocessableEntity, "request body is not valid JSON"
	case errors.As(err, &typeErr):
		status, message = http.StatusUnprocessableEntity, fmt.Sprintf("field %s has the wrong type", typeErr.Field)
	}
	s.writeError(w, status, "VALIDATION_ERROR", message)
}

// writeDomainError maps domain error kinds onto status codes. Anything
// unclassified is logged and reported as 500.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrConflict):
		s.writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
	default:
		s.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("catalog request failed")
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

// authorized reports whether the Authorization header carries the configured
// write token.
func (s *Server) authorized(header string) bool {
	token, ok := strings.CutPrefix(header, "Bearer ")
	return ok && strings.TrimSpace(token) == s.cfg.AuthToken
}

// pathID parses a positive identifier from the named URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}

func queryID(query url.Values, name string) (*int64, error) {
	val := strings.TrimSpace(query.Get(name))
	if val == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid %s value", name)
	}
	return &id, nil
}

type popularQuery struct {
	Count   int
	GenreID *int64
	Year    *int
}

// parsePopularQuery reads count, genreId and year. A missing count is left
// at zero so the ranker applies its default.
func parsePopularQuery(query url.Values) (popularQuery, error) {
	var pq popularQuery
	if val := strings.TrimSpace(query.Get("count")); val != "" {
		count, err := strconv.Atoi(val)
		if err != nil {
			return pq, fmt.Errorf("invalid count value")
		}
		if count <= 0 {
			return pq, fmt.Errorf("count must be positive")
		}
		pq.Count = count
	}
	genreID, err := queryID(query, "genreId")
	if err != nil {
		return pq, err
	}
	pq.GenreID = genreID
	if val := strings.TrimSpace(query.Get("year")); val != "" {
		year, err := strconv.Atoi(val)
		if err != nil || year <= 0 {
			return pq, fmt.Errorf("invalid year value")
		}
		pq.Year = &year
	}
	return pq, nil
}
