package dao

import "errors"

var (
	// ErrNotFound is returned when the requested entity does not exist
	ErrNotFound = errors.New("dao: not found")

	// ErrInvalidID is returned for an empty or malformed key
	ErrInvalidID = errors.New("dao: invalid id")

	// ErrExists is returned when a key is already held by another entity
	ErrExists = errors.New("dao: already exists")

	// ErrNilEntity is returned when saving a nil pointer
	ErrNilEntity = errors.New("dao: nil entity")
)
