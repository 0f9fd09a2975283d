// Package pkg holds utilities shared across the project.
// This file defines the domain-level errors.
//
// Errors are compared by identity, never by string:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

// Generic errors. The handler layer maps them to HTTP status codes.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)

// Relationship and conversation errors.
var (
	ErrAlreadyFriends   = errors.New("already friends")
	ErrDuplicateRequest = errors.New("friend request already exists")
	ErrSelfRequest      = errors.New("cannot send a friend request to yourself")
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")
	ErrEmptyContent     = errors.New("message content is empty")
)

// DuplicateError reports a uniqueness violation on a named field
// ("username", "email"). It matches ErrAlreadyExists with errors.Is.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return e.Field + " is already taken"
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrAlreadyExists
}
