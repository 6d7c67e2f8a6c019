package models

import "errors"

// Domain specific errors. Expected review-flow conditions (self-review,
// duplicate votes, terminal proposals) are sentinels so handlers can map
// them to user-facing responses instead of treating them as faults.
var (
	ErrNotFound        = errors.New("requested item not found")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrForbidden       = errors.New("action forbidden")
	ErrValidation      = errors.New("validation failed")

	ErrSelfReview      = errors.New("proposer cannot review own proposal")
	ErrDuplicateVote   = errors.New("user already voted on this proposal")
	ErrAlreadyResolved = errors.New("proposal already resolved")
	ErrEmptyChanges    = errors.New("update proposal needs at least one change")
)
