package domain

import "time"

// EventType classifies an activity-feed record.
type EventType string

const (
	EventLike   EventType = "LIKE"
	EventReview EventType = "REVIEW"
	EventFriend EventType = "FRIEND"
)

// Operation is the mutation recorded by a feed event.
type Operation string

const (
	OperationAdd    Operation = "ADD"
	OperationRemove Operation = "REMOVE"
	OperationUpdate Operation = "UPDATE"
)

// FeedEvent is one record of a user's activity feed.
type FeedEvent struct {
	EventID   int64     `json:"eventId"`
	Timestamp time.Time `json:"-"`
	UserID    int64     `json:"userId"`
	EventType EventType `json:"eventType"`
	Operation Operation `json:"operation"`
	EntityID  int64     `json:"entityId"`
}
