package team

import (
	"context"
	"errors"
)

var (
	// ErrNotStarted is returned by a pool team that was not started
	ErrNotStarted = errors.New("team not started")
	// ErrStopped is returned once a team has been stopped
	ErrStopped = errors.New("team stopped")
	// ErrSaturated is returned when a pool team cannot accept work in time
	ErrSaturated = errors.New("team saturated")
)

type (
	// Assignment is a unit of computation handed to a team
	Assignment interface {
		ID() string
		Run(ctx context.Context)
	}

	// Team runs assignments
	Team interface {
		Name() string
		Execute(ctx context.Context, assignment Assignment) error
	}

	// Lifecycle is implemented by teams owning goroutines
	Lifecycle interface {
		Start(ctx context.Context) error
		Stop(ctx context.Context) error
	}
)

// Func adapts a function to an Assignment
type Func struct {
	Key string
	Fn  func(ctx context.Context)
}

// ID returns assignment key
func (f *Func) ID() string { return f.Key }

// Run runs the function
func (f *Func) Run(ctx context.Context) { f.Fn(ctx) }

// NewFunc creates a function assignment
func NewFunc(id string, fn func(ctx context.Context)) Assignment {
	return &Func{Key: id, Fn: fn}
}
