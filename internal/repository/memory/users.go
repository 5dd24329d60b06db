package memory

import (
	"context"
	"time"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

// Users implements repository.UserRepository.
type Users struct {
	s *Store
}

func (r *Users) Create(_ context.Context, params repository.UserCreateParams) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user := domain.User{
		ID:    r.s.userSeq.Add(1),
		Email: params.Email,
		Login: params.Login,
		Name:  params.Name,
	}
	if user.Name == "" {
		user.Name = user.Login
	}
	r.s.users[user.ID] = user
	return user, nil
}

func (r *Users) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.users[id]
	return ok, nil
}

// Feed implements repository.FeedRepository.
type Feed struct {
	s *Store
}

func (r *Feed) Append(_ context.Context, event domain.FeedEvent) (domain.FeedEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[event.UserID]; !ok {
		return domain.FeedEvent{}, domain.NotFound("user", event.UserID)
	}
	event.EventID = r.s.eventSeq.Add(1)
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	r.s.feed = append(r.s.feed, event)
	return event, nil
}

func (r *Feed) ListByUser(_ context.Context, userID int64) ([]domain.FeedEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	events := make([]domain.FeedEvent, 0)
	for _, event := range r.s.feed {
		if event.UserID == userID {
			events = append(events, event)
		}
	}
	return events, nil
}
