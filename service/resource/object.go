package resource

import (
	"github.com/viant/jobflow/model/graph"
)

type state int

const (
	stateIdle state = iota
	stateLoading
	stateReady
	stateFailed
)

// Notify is called under the scope lock once a load settles.  The returned
// action, if any, runs after the lock has been released.
type Notify func() (resume func())

// ManagedObject is one resource instance bound to a scope
type ManagedObject struct {
	Definition *graph.Resource
	scope      *Scope
	state      state
	value      interface{}
	err        error
	waiters    []Notify
	released   bool
}

// Name returns the resource name
func (m *ManagedObject) Name() string {
	return m.Definition.Name
}

// Scope returns the owning scope
func (m *ManagedObject) Scope() *Scope {
	return m.scope
}

// Ready returns true once the load settled successfully
func (m *ManagedObject) Ready() bool {
	return m.state == stateReady
}

// Settled returns true once the load completed, successfully or not
func (m *ManagedObject) Settled() bool {
	return m.state == stateReady || m.state == stateFailed
}

// Value returns the loaded value or the load failure.  A value is never handed
// out before the object is ready.
func (m *ManagedObject) Value() (interface{}, error) {
	switch m.state {
	case stateReady:
		return m.value, nil
	case stateFailed:
		return nil, m.err
	}
	return nil, ErrNotReady
}
