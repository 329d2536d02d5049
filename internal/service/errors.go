package service

import "errors"

var (
	// ErrNotFound covers both a missing record and a record owned by
	// someone else, so existence never leaks across owners.
	ErrNotFound = errors.New("generation not found")

	// ErrInvalidState is a conflict: the operation's status guard failed,
	// either up front or because a concurrent transition won the
	// compare-and-swap. Callers must re-fetch, never retry blindly.
	ErrInvalidState = errors.New("only pending generations can be edited")

	// ErrValidation is wrapped with a human-readable detail message.
	ErrValidation = errors.New("validation failed")

	// ErrNoQueued means the worker found nothing to claim.
	ErrNoQueued = errors.New("no queued generations")
)
