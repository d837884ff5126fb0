package dao

import (
	"context"
)

// Service persists entities of type T keyed by K
type Service[K comparable, T any] interface {
	// Save creates or replaces t
	Save(ctx context.Context, t *T) error

	// Load returns the entity with id or ErrNotFound
	Load(ctx context.Context, id K) (*T, error)

	// Delete removes the entity with id or returns ErrNotFound
	Delete(ctx context.Context, id K) error

	// List returns entities matching parameters; unknown parameters are ignored
	List(ctx context.Context, parameters ...*Parameter) ([]*T, error)
}
