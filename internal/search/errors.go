package search

import "errors"

var (
	// ErrNotExecuted is returned when a lifecycle call needs a submitted search.
	ErrNotExecuted = errors.New("search has not been executed")

	// ErrAlreadyExecuted is returned when Execute is called twice on one search.
	ErrAlreadyExecuted = errors.New("search has already been executed")
)
