package service

import "errors"

// ErrEmptyPath is returned by Open when no todo file path is given.
var ErrEmptyPath = errors.New("todo file path is empty")
