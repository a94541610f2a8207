package store

import "errors"

var (
	ErrNoteNotFound = errors.New("note not found in local store")
	ErrUserNotFound = errors.New("no cached user")
)
