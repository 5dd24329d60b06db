package domain

import (
	"sort"
	"time"
)

// Genre is a static reference entry attached to films.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Director is a person credited on one or more films.
type Director struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Mpa is the film's MPA rating reference.
type Mpa struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// Film represents the canonical film entity. Genres, Likes, ReviewIDs and
// Directors are attached per read and never persisted through this struct.
type Film struct {
	ID          int64
	Name        string
	Description string
	ReleaseDate time.Time
	Duration    int
	Mpa         *Mpa
	Genres      []Genre
	Likes       IDSet
	ReviewIDs   IDSet
	Directors   []Director
}

// ReleaseYear returns the calendar year of the release date.
func (f Film) ReleaseYear() int {
	return f.ReleaseDate.Year()
}

// IDSet is an unordered set of identifiers.
type IDSet map[int64]struct{}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...int64) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Add inserts id into the set.
func (s IDSet) Add(id int64) {
	s[id] = struct{}{}
}

// Has reports whether id is in the set.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted renders the set as an ascending slice.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortGenres orders genres by id so enriched films render deterministically.
func SortGenres(genres []Genre) {
	sort.Slice(genres, func(i, j int) bool { return genres[i].ID < genres[j].ID })
}

// SortDirectors orders directors by id.
func SortDirectors(directors []Director) {
	sort.Slice(directors, func(i, j int) bool { return directors[i].ID < directors[j].ID })
}
