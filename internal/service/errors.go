package service

import "errors"

var (
	// ErrNotFound is returned when no record matches an id.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the backend rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTimeout is returned when a backend call exceeds its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrNoSession is returned by operations that need a signed-in user.
	ErrNoSession = errors.New("not logged in")
)
