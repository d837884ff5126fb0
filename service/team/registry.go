package team

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Registry resolves team names; unknown or empty names map to the passive team
type Registry struct {
	teams    map[string]Team
	fallback Team
	mux      sync.RWMutex
}

// Register adds teams
func (r *Registry) Register(teams ...Team) {
	r.mux.Lock()
	defer r.mux.Unlock()
	for _, t := range teams {
		r.teams[t.Name()] = t
	}
}

// Lookup returns the named team and whether it was registered
func (r *Registry) Lookup(name string) (Team, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret, ok := r.teams[name]
	if !ok {
		return r.fallback, name == ""
	}
	return ret, true
}

// Team returns the named team or the fallback
func (r *Registry) Team(name string) Team {
	ret, _ := r.Lookup(name)
	return ret
}

// Start starts every lifecycle team
func (r *Registry) Start(ctx context.Context) error {
	for _, t := range r.lifecycles() {
		if err := t.Start(ctx); err != nil {
			return fmt.Errorf("failed to start team: %w", err)
		}
	}
	return nil
}

// Stop stops every lifecycle team
func (r *Registry) Stop(ctx context.Context) error {
	var errs []error
	for _, t := range r.lifecycles() {
		errs = append(errs, t.Stop(ctx))
	}
	return errors.Join(errs...)
}

func (r *Registry) lifecycles() []Lifecycle {
	r.mux.RLock()
	defer r.mux.RUnlock()
	var ret []Lifecycle
	for _, t := range r.teams {
		if l, ok := t.(Lifecycle); ok {
			ret = append(ret, l)
		}
	}
	return ret
}

// NewRegistry creates a registry holding the passive fallback and teams
func NewRegistry(teams ...Team) *Registry {
	fallback := NewPassive(PassiveName)
	ret := &Registry{teams: map[string]Team{PassiveName: fallback}, fallback: fallback}
	ret.Register(teams...)
	return ret
}
