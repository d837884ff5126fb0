package execution

import (
	"github.com/viant/jobflow/model/graph"
	"github.com/viant/jobflow/service/resource"
)

// Thread is one logical thread of control.  All fields are guarded by the
// process lock.
type Thread struct {
	ID string
	// Seq orders threads by creation within the process
	Seq     int
	Process *Process
	Parent  *Thread
	// Joined threads hold a join obligation on their parent
	Joined      bool
	Escalations graph.Escalations
	Scope       *resource.Scope
	// Future resolves when the thread retires
	Future *Future
	// Flow holds the queued jobs in execution order
	Flow   []*Job
	Active *Job
	// Depth is the escalation depth of the job that created the thread
	Depth int
	// Children counts joined child threads still running
	Children int
	// Retired is set once the thread left the process
	Retired bool
	// Interrupted drops the continuations of the active job
	Interrupted bool
	// err is the first failure of a job in this thread
	err error
}

// Enqueue appends a job to the flow
func (t *Thread) Enqueue(job *Job) {
	job.Thread = t
	t.Flow = append(t.Flow, job)
}

// Push places a job at the head of the flow
func (t *Thread) Push(job *Job) {
	job.Thread = t
	t.Flow = append([]*Job{job}, t.Flow...)
}

// Next pops the head of the flow into Active
func (t *Thread) Next() *Job {
	if len(t.Flow) == 0 {
		return nil
	}
	job := t.Flow[0]
	t.Flow[0] = nil
	t.Flow = t.Flow[1:]
	t.Active = job
	return job
}

// Clear drops queued jobs and returns them
func (t *Thread) Clear() []*Job {
	ret := t.Flow
	t.Flow = nil
	return ret
}

// Exhausted returns true when nothing is running or queued
func (t *Thread) Exhausted() bool {
	return t.Active == nil && len(t.Flow) == 0
}

// Done returns true when the thread can retire
func (t *Thread) Done() bool {
	return !t.Retired && t.Exhausted() && t.Children == 0
}

// Chain returns the thread followed by its ancestors
func (t *Thread) Chain() []*Thread {
	var ret []*Thread
	for thread := t; thread != nil; thread = thread.Parent {
		ret = append(ret, thread)
	}
	return ret
}

// SetErr records the first job failure seen by the thread
func (t *Thread) SetErr(err error) {
	if t.err == nil {
		t.err = err
	}
}

// Err returns the first job failure seen by the thread
func (t *Thread) Err() error {
	return t.err
}

// NewThread creates a thread whose scope is held by the thread itself until
// it retires.
func NewThread(id string, process *Process, parent *Thread, joined bool, escalations graph.Escalations) *Thread {
	ret := &Thread{
		ID:          id,
		Process:     process,
		Parent:      parent,
		Joined:      joined,
		Escalations: escalations,
		Future:      NewFuture(),
	}
	ret.Scope = resource.NewScope(graph.ScopeThread, id, process.Locker())
	ret.Scope.Retain()
	return ret
}
