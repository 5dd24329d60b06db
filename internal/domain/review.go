package domain

import "fmt"

// Review is a user's written opinion on a film. Useful is a derived aggregate
// maintained only by reaction transitions.
type Review struct {
	ID         int64
	FilmID     int64
	UserID     int64
	Content    string
	IsPositive bool
	Useful     int
}

// Reaction is the state of a single (review, user) pair.
type Reaction int

const (
	ReactionNone Reaction = iota
	ReactionLiked
	ReactionDisliked
)

func (r Reaction) String() string {
	switch r {
	case ReactionNone:
		return "none"
	case ReactionLiked:
		return "liked"
	case ReactionDisliked:
		return "disliked"
	default:
		return fmt.Sprintf("reaction(%d)", int(r))
	}
}

// User is the minimal user record the signal layer needs.
type User struct {
	ID    int64
	Email string
	Login string
	Name  string
}
