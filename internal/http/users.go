package httpserver

import (
	"net/http"
	"strings"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

type userCreateRequest struct {
	Email string `json:"email"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

type feedEventResponse struct {
	EventID   int64            `json:"eventId"`
	Timestamp int64            `json:"timestamp"`
	UserID    int64            `json:"userId"`
	EventType domain.EventType `json:"eventType"`
	Operation domain.Operation `json:"operation"`
	EntityID  int64            `json:"entityId"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req userCreateRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, err)
		return
	}
	login := strings.TrimSpace(req.Login)
	if login == "" || strings.ContainsAny(login, " \t") {
		s.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "login must be non-empty and contain no spaces")
		return
	}
	if !strings.Contains(req.Email, "@") {
		s.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email is invalid")
		return
	}

	user, err := s.svc.Repo.Users.Create(r.Context(), repository.UserCreateParams{
		Email: strings.TrimSpace(req.Email),
		Login: login,
		Name:  strings.TrimSpace(req.Name),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, userResponse{
		ID:    user.ID,
		Email: user.Email,
		Login: user.Login,
		Name:  user.Name,
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := s.requireUser(r.Context(), userID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	films, err := s.svc.Catalog.Recommendations(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toFilmResponses(films))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	if err := s.requireUser(r.Context(), userID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	events, err := s.svc.Repo.Feed.ListByUser(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]feedEventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, feedEventResponse{
			EventID:   event.EventID,
			Timestamp: event.Timestamp.UnixMilli(),
			UserID:    event.UserID,
			EventType: event.EventType,
			Operation: event.Operation,
			EntityID:  event.EntityID,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}
