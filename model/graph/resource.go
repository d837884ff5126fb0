package graph

import (
	"context"
	"fmt"
)

// Scope identifies the lifetime a resource instance is bound to
type Scope string

const (
	ScopeJob     Scope = "job"
	ScopeThread  Scope = "thread"
	ScopeProcess Scope = "process"
)

type (
	// CreateFunc synchronously creates a resource value
	CreateFunc func(ctx context.Context) (interface{}, error)

	// AsyncCreateFunc starts creating a resource value and calls ready once,
	// possibly from another goroutine.
	AsyncCreateFunc func(ctx context.Context, ready func(value interface{}, err error))

	// CleanupFunc releases a resource value
	CleanupFunc func(ctx context.Context, value interface{}) error

	// Resource is a managed object definition
	Resource struct {
		Name        string          `json:"name" yaml:"name"`
		Scope       Scope           `json:"scope" yaml:"scope"`
		Pooled      bool            `json:"pooled,omitempty" yaml:"pooled,omitempty"`
		Create      CreateFunc      `json:"-" yaml:"-"`
		CreateAsync AsyncCreateFunc `json:"-" yaml:"-"`
		Cleanup     CleanupFunc     `json:"-" yaml:"-"`
	}
)

// IsAsync returns true if the resource loads asynchronously
func (r *Resource) IsAsync() bool {
	return r.CreateAsync != nil
}

// Validate checks resource definition
func (r *Resource) Validate() error {
	switch r.Scope {
	case "":
		r.Scope = ScopeProcess
	case ScopeJob, ScopeThread, ScopeProcess:
	default:
		return fmt.Errorf("resource %v: unsupported scope %q", r.Name, r.Scope)
	}
	if (r.Create == nil) == (r.CreateAsync == nil) {
		return fmt.Errorf("resource %v: exactly one of Create or CreateAsync is required", r.Name)
	}
	return nil
}
