package errors

import "errors"

var (
	ErrUnauthorized  = errors.New("caller lacks the administrator role")
	ErrAlreadyPaused = errors.New("service is already paused")
	ErrNotPaused     = errors.New("service is not paused")
)
