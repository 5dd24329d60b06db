package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced film, review, user or director is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict covers duplicate likes, removing a missing like and
	// reaction-state constraint violations.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument is returned for bad caller input such as an unknown sort key.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInternal marks a broken storage invariant.
	ErrInternal = errors.New("internal error")
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %d not found", e.Entity, e.ID)
}

// Unwrap lets errors.Is match ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NotFound builds a NotFoundError for entity/id.
func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Conflict wraps ErrConflict with a message.
func Conflict(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrConflict)
}

// InvalidArgument wraps ErrInvalidArgument with a message.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInvalidArgument)
}
