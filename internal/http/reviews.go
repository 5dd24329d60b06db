package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/feed"
	"github.com/Clark-Hu/cinesignal/internal/reaction"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

const defaultReviewCount = 10

type reviewCreateRequest struct {
	Content    string `json:"content"`
	IsPositive *bool  `json:"isPositive"`
	UserID     int64  `json:"userId"`
	FilmID     int64  `json:"filmId"`
}

type reviewUpdateRequest struct {
	ReviewID   int64  `json:"reviewId"`
	Content    string `json:"content"`
	IsPositive *bool  `json:"isPositive"`
}

type reviewResponse struct {
	ReviewID   int64  `json:"reviewId"`
	Content    string `json:"content"`
	IsPositive bool   `json:"isPositive"`
	UserID     int64  `json:"userId"`
	FilmID     int64  `json:"filmId"`
	Useful     int    `json:"useful"`
}

type reactionResponse struct {
	ReviewID int64  `json:"reviewId"`
	UserID   int64  `json:"userId"`
	Reaction string `json:"reaction"`
	Useful   int    `json:"useful"`
}

func toReviewResponse(review domain.Review) reviewResponse {
	return reviewResponse{
		ReviewID:   review.ID,
		Content:    review.Content,
		IsPositive: review.IsPositive,
		UserID:     review.UserID,
		FilmID:     review.FilmID,
		Useful:     review.Useful,
	}
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewCreateRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, err)
		return
	}
	content := strings.TrimSpace(req.Content)
	switch {
	case content == "":
		s.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "content is required")
		return
	case req.IsPositive == nil:
		s.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "isPositive is required")
		return
	case req.UserID <= 0 || req.FilmID <= 0:
		s.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "userId and filmId must be positive")
		return
	}

	ctx := r.Context()
	if err := s.requireUser(ctx, req.UserID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.requireFilm(ctx, req.FilmID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	review, err := s.svc.Repo.Reviews.Create(ctx, repository.ReviewCreateParams{
		FilmID:     req.FilmID,
		UserID:     req.UserID,
		Content:    content,
		IsPositive: *req.IsPositive,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	feed.Emit(ctx, s.logger, s.svc.Sink, review.UserID, domain.EventReview, domain.OperationAdd, review.ID)
	s.writeJSON(w, http.StatusCreated, toReviewResponse(review))
}

// handleUpdateReview rewrites content and polarity. Usefulness is kept, and
// the feed event is attributed to the review's author.
func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewUpdateRequest
	if err := readJSON(w, r, &req); err != nil {
		s.writeDecodeError(w, err)
		return
	}
	content := strings.TrimSpace(req.Content)
	switch {
	case req.ReviewID <= 0:
		s.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "reviewId must be positive")
		return
	case content == "":
		s.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "content is required")
		return
	case req.IsPositive == nil:
		s.writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "isPositive is required")
		return
	}

	ctx := r.Context()
	review, err := s.svc.Repo.Reviews.Update(ctx, repository.ReviewUpdateParams{
		ID:         req.ReviewID,
		Content:    content,
		IsPositive: *req.IsPositive,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	feed.Emit(ctx, s.logger, s.svc.Sink, review.UserID, domain.EventReview, domain.OperationUpdate, review.ID)
	s.writeJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	ctx := r.Context()
	review, err := s.svc.Repo.Reviews.Delete(ctx, id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	feed.Emit(ctx, s.logger, s.svc.Sink, review.UserID, domain.EventReview, domain.OperationRemove, review.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	review, err := s.svc.Repo.Reviews.Get(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toReviewResponse(review))
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	filmID, count, err := parseReviewQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	reviews, err := s.svc.Repo.Reviews.List(r.Context(), filmID, count)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	out := make([]reviewResponse, 0, len(reviews))
	for _, review := range reviews {
		out = append(out, toReviewResponse(review))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func parseReviewQuery(query url.Values) (*int64, int, error) {
	filmID, err := queryID(query, "filmId")
	if err != nil {
		return nil, 0, err
	}
	count := defaultReviewCount
	if val := strings.TrimSpace(query.Get("count")); val != "" {
		count, err = strconv.Atoi(val)
		if err != nil || count <= 0 {
			return nil, 0, fmt.Errorf("invalid count value")
		}
	}
	return filmID, count, nil
}

// reactionHandler serves the four review reaction routes. The review itself
// is checked inside the reaction transaction; the user is checked here.
func (s *Server) reactionHandler(op reaction.Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reviewID, err := pathID(r, "id")
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
		if err := s.requireUser(ctx, userID); err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		outcome, err := s.svc.Reactions.Apply(ctx, reviewID, userID, op)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, reactionResponse{
			ReviewID: reviewID,
			UserID:   userID,
			Reaction: outcome.Current.String(),
			Useful:   outcome.Useful,
		})
	}
}
