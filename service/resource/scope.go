package resource

import (
	"sync"

	"github.com/viant/jobflow/model/graph"
)

// Scope is one instantiation of a resource lifetime
type Scope struct {
	Kind    graph.Scope
	ID      string
	locker  sync.Locker
	objects map[string]*ManagedObject
	loaded  []*ManagedObject
	refs    int
	closed  bool
}

// NewScope creates a scope guarded by locker
func NewScope(kind graph.Scope, id string, locker sync.Locker) *Scope {
	return &Scope{
		Kind:    kind,
		ID:      id,
		locker:  locker,
		objects: make(map[string]*ManagedObject),
	}
}

// Object returns the memoized instance of definition in this scope
func (s *Scope) Object(definition *graph.Resource) (*ManagedObject, error) {
	if ret, ok := s.objects[definition.Name]; ok {
		return ret, nil
	}
	if s.closed {
		return nil, ErrScopeClosed
	}
	ret := &ManagedObject{Definition: definition, scope: s}
	s.objects[definition.Name] = ret
	return ret, nil
}

// Retain registers an outstanding reference
func (s *Scope) Retain() {
	s.refs++
}

// Release drops a reference.  When the last reference goes the scope closes and
// the loaded objects are returned for cleanup; this happens exactly once.
func (s *Scope) Release() ([]*ManagedObject, bool) {
	if s.closed {
		return nil, false
	}
	if s.refs > 0 {
		s.refs--
	}
	if s.refs > 0 {
		return nil, false
	}
	s.closed = true
	loaded := s.loaded
	s.loaded = nil
	return loaded, true
}

// Refs returns the outstanding reference count
func (s *Scope) Refs() int {
	return s.refs
}

// Closed returns true once the scope has been released
func (s *Scope) Closed() bool {
	return s.closed
}
