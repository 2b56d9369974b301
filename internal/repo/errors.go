package repo

import "errors"

var (
	ErrNotFound     = errors.New("record not found")
	ErrConflict     = errors.New("already exists")
	ErrUnauthorized = errors.New("unauthorized")
)
