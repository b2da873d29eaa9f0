package todotxt

import "errors"

var (
	// ErrIO wraps read and write failures of the backing file.
	ErrIO = errors.New("todo file i/o")
	// ErrNotBound is returned by Save when the list has no file path.
	ErrNotBound = errors.New("todo list is not bound to a file")
	// ErrNotFound is returned when an id does not exist in the list.
	ErrNotFound = errors.New("task not found")
)
