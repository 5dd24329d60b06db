// Package memory implements the repository interfaces on in-process maps.
// All state and id counters belong to one Store value.
package memory

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Clark-Hu/cinesignal/internal/domain"
	"github.com/Clark-Hu/cinesignal/internal/repository"
)

type likeKey struct {
	filmID int64
	userID int64
}

type reactionKey struct {
	reviewID int64
	userID   int64
}

// Store holds every table of the in-memory backend behind one mutex.
type Store struct {
	mu sync.RWMutex

	mpa       map[int64]domain.Mpa
	genres    map[int64]domain.Genre
	films     map[int64]domain.Film
	filmGenre map[int64]domain.IDSet
	directors map[int64]domain.Director
	filmDir   map[int64]domain.IDSet
	users     map[int64]domain.User
	likes     map[likeKey]struct{}
	reviews   map[int64]domain.Review
	reactions map[reactionKey]domain.Reaction
	feed      []domain.FeedEvent

	filmSeq     atomic.Int64
	directorSeq atomic.Int64
	userSeq     atomic.Int64
	reviewSeq   atomic.Int64
	eventSeq    atomic.Int64
}

// New returns an empty store seeded with the MPA and genre reference rows.
func New() *Store {
	s := &Store{
		mpa:       make(map[int64]domain.Mpa),
		genres:    make(map[int64]domain.Genre),
		films:     make(map[int64]domain.Film),
		filmGenre: make(map[int64]domain.IDSet),
		directors: make(map[int64]domain.Director),
		filmDir:   make(map[int64]domain.IDSet),
		users:     make(map[int64]domain.User),
		likes:     make(map[likeKey]struct{}),
		reviews:   make(map[int64]domain.Review),
		reactions: make(map[reactionKey]domain.Reaction),
	}
	for i, name := range []string{"G", "PG", "PG-13", "R", "NC-17"} {
		id := int64(i + 1)
		s.mpa[id] = domain.Mpa{ID: id, Name: name}
	}
	for i, name := range []string{"Comedy", "Drama", "Animation", "Thriller", "Documentary", "Action"} {
		id := int64(i + 1)
		s.genres[id] = domain.Genre{ID: id, Name: name}
	}
	return s
}

// Repository exposes the store through the repository interfaces.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Films:     &Films{s: s},
		Likes:     &Likes{s: s},
		Reactions: &Reactions{s: s},
		Reviews:   &Reviews{s: s},
		Users:     &Users{s: s},
		Feed:      &Feed{s: s},
	}
}

// NewRepository is shorthand for New().Repository().
func NewRepository() *repository.Repository {
	return New().Repository()
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for id := range m {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
