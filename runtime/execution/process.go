package execution

import (
	"context"
	"sync"
	"time"

	"github.com/viant/jobflow/model"
	"github.com/viant/jobflow/model/graph"
	"github.com/viant/jobflow/progress"
	"github.com/viant/jobflow/service/escalation"
	"github.com/viant/jobflow/service/resource"
	"github.com/viant/jobflow/tracing"
)

// Outcome is how a process ended
type Outcome struct {
	ProcessID string
	State     ProcessState
	// Err is the *escalation.Failure that failed the process
	Err error
	// CleanupErrors lists process scope cleanup failures
	CleanupErrors []error
	TimeTaken     time.Duration
}

// Process is one invocation of an entry job
type Process struct {
	ID        string
	Graph     *model.Graph
	Entry     string
	Parameter interface{}
	// Escalations is the process level table: graph rules then invocation rules
	Escalations graph.Escalations
	CreatedAt   time.Time
	Scope       *resource.Scope
	Progress    *progress.Progress
	Span        *tracing.Span
	// Context is the base context job contexts derive from
	Context context.Context

	mux        sync.Mutex
	state      ProcessState
	threads    map[string]*Thread
	live       int
	seq        int
	failure    *escalation.Failure
	finishing  bool
	outcome    *Outcome
	done       chan struct{}
	onDone     []func(*Outcome)
	finishedAt time.Time
}

// Mutate runs fn under the process lock and then, with the lock released,
// every follow-up action fn returned, in order.
func (p *Process) Mutate(fn func() []func()) {
	p.mux.Lock()
	actions := fn()
	p.mux.Unlock()
	for _, action := range actions {
		if action != nil {
			action()
		}
	}
}

// Locker returns the process lock
func (p *Process) Locker() sync.Locker {
	return &p.mux
}

// State returns process state
func (p *Process) State() ProcessState {
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.state
}

// Failure returns the failure that failed the process.  Caller holds the lock.
func (p *Process) Failure() *escalation.Failure {
	return p.failure
}

// Failed returns true once the default handler failed the process.  Caller
// holds the lock.
func (p *Process) Failed() bool {
	return p.state == StateFailed
}

// MarkFailed records the first unrecoverable failure.  Caller holds the lock.
func (p *Process) MarkFailed(failure *escalation.Failure) bool {
	if p.state == StateFailed {
		return false
	}
	p.state = StateFailed
	p.failure = failure
	return true
}

// AddThread registers a live thread.  Caller holds the lock.
func (p *Process) AddThread(thread *Thread) {
	p.seq++
	thread.Seq = p.seq
	p.threads[thread.ID] = thread
	p.live++
	p.Scope.Retain()
}

// RetireThread drops a live thread and reports whether it was the last one;
// in that case the process scope objects are returned for cleanup.  Caller
// holds the lock.
func (p *Process) RetireThread(thread *Thread) (last bool, objects []*resource.ManagedObject) {
	if _, ok := p.threads[thread.ID]; !ok {
		return false, nil
	}
	delete(p.threads, thread.ID)
	p.live--
	objects, closed := p.Scope.Release()
	if p.live > 0 {
		return false, nil
	}
	p.finishing = true
	if !closed {
		return true, nil
	}
	return true, objects
}

// Live returns the number of live threads.  Caller holds the lock.
func (p *Process) Live() int {
	return p.live
}

// Finishing returns true once the last thread retired.  Caller holds the lock.
func (p *Process) Finishing() bool {
	return p.finishing
}

// Threads returns the live threads.  Caller holds the lock.
func (p *Process) Threads() []*Thread {
	ret := make([]*Thread, 0, len(p.threads))
	for _, thread := range p.threads {
		ret = append(ret, thread)
	}
	return ret
}

// Finish resolves the process outcome once.  Completion callbacks run before
// waiters are released.
func (p *Process) Finish(outcome *Outcome) {
	p.mux.Lock()
	if p.outcome != nil {
		p.mux.Unlock()
		return
	}
	if p.state == StateRunning {
		p.state = StateCompleted
	}
	outcome.ProcessID = p.ID
	outcome.State = p.state
	if p.failure != nil {
		outcome.Err = p.failure
	}
	p.outcome = outcome
	p.finishedAt = p.CreatedAt.Add(outcome.TimeTaken)
	callbacks := p.onDone
	p.onDone = nil
	p.mux.Unlock()
	for _, callback := range callbacks {
		callback(outcome)
	}
	close(p.done)
}

// OnDone registers a completion callback; it runs right away if the process
// has already finished.
func (p *Process) OnDone(fn func(*Outcome)) {
	p.mux.Lock()
	if p.outcome == nil {
		p.onDone = append(p.onDone, fn)
		p.mux.Unlock()
		return
	}
	outcome := p.outcome
	p.mux.Unlock()
	fn(outcome)
}

// Done returns a channel closed when the process finished
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Outcome returns the outcome, nil while running
func (p *Process) Outcome() *Outcome {
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.outcome
}

// FinishedAt returns the finish time, zero while running
func (p *Process) FinishedAt() time.Time {
	p.mux.Lock()
	defer p.mux.Unlock()
	return p.finishedAt
}

// Wait blocks until the process finished or ctx is done
func (p *Process) Wait(ctx context.Context) (*Outcome, error) {
	select {
	case <-p.done:
		return p.Outcome(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NewProcess creates a running process
func NewProcess(ctx context.Context, id string, aGraph *model.Graph, entry string, parameter interface{}, escalations graph.Escalations, now time.Time) *Process {
	ret := &Process{
		ID:          id,
		Graph:       aGraph,
		Entry:       entry,
		Parameter:   parameter,
		Escalations: escalations,
		CreatedAt:   now,
		state:       StateRunning,
		threads:     make(map[string]*Thread),
		done:        make(chan struct{}),
	}
	ret.Scope = resource.NewScope(graph.ScopeProcess, id, &ret.mux)
	ret.Context, ret.Progress = progress.WithNewTracker(ctx, id, aGraph.Name, nil)
	return ret
}
