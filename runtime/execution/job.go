package execution

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/viant/jobflow/model/graph"
	"github.com/viant/jobflow/service/resource"
)

var (
	// ErrUnknownFlow is returned when instigating a flow the job does not declare
	ErrUnknownFlow = errors.New("unknown flow")
	// ErrUndeclaredResource is returned for a resource the job does not declare
	ErrUndeclaredResource = errors.New("undeclared resource")
	// ErrJobFinished is returned when instigating after the job finished
	ErrJobFinished = errors.New("job already finished")
	// ErrDiscarded resolves futures of instigations dropped by a failure
	ErrDiscarded = errors.New("instigation discarded")
)

// Instigation is a flow requested by job logic
type Instigation struct {
	Flow      *graph.Flow
	Parameter interface{}
	Future    *Future
}

// Job is one activation of a job definition.  Exported fields are guarded
// by the process lock.
type Job struct {
	Definition *graph.Job
	Thread     *Thread
	State      JobState
	Scope      *resource.Scope
	// Objects are the required resources in declaration order
	Objects []*resource.ManagedObject
	// Pending counts required resources still loading
	Pending int
	// Depth is the number of handler jobs this job descends from
	Depth int
	// Future resolves when the job finishes; set for jobs created by a
	// sequential instigation
	Future  *Future
	Started time.Time
	// Spawned counts threads started by the job while it ran
	Spawned int

	id        string
	parameter interface{}
	resources map[string]*resource.ManagedObject

	mux          sync.Mutex
	output       interface{}
	instigations []*Instigation
	sealed       bool
	deferred     bool
	settle       func(output interface{}, err error)
	spawner      Spawner
	once         sync.Once
}

// Spawner starts the thread of a parallel or asynchronous flow
type Spawner func(flow *graph.Flow, parameter interface{}) (*Future, error)

// ID returns job activation id
func (j *Job) ID() string { return j.id }

// Name returns job definition name
func (j *Job) Name() string { return j.Definition.Name }

// ProcessID returns owning process id
func (j *Job) ProcessID() string { return j.Thread.Process.ID }

// ThreadID returns owning thread id
func (j *Job) ThreadID() string { return j.Thread.ID }

// Parameter returns job parameter
func (j *Job) Parameter() interface{} { return j.parameter }

// Resource returns a ready resource declared by the job
func (j *Job) Resource(name string) (interface{}, error) {
	object, ok := j.resources[name]
	if !ok {
		return nil, fmt.Errorf("%v: %w %v", j.Name(), ErrUndeclaredResource, name)
	}
	return object.Value()
}

// Output returns job output
func (j *Job) Output() interface{} {
	j.mux.Lock()
	defer j.mux.Unlock()
	return j.output
}

// SetOutput sets job output
func (j *Job) SetOutput(output interface{}) {
	j.mux.Lock()
	j.output = output
	j.mux.Unlock()
}

// Instigate requests a declared flow.  Spawning flows go to the spawner right
// away, sequential ones are kept until the job completes.
func (j *Job) Instigate(name string, parameter interface{}) (graph.Future, error) {
	flow := j.Definition.LookupFlow(name)
	if flow == nil {
		return nil, fmt.Errorf("%v: %w %v", j.Name(), ErrUnknownFlow, name)
	}
	if flow.Spawns() && j.spawner != nil {
		future, err := j.spawner(flow, parameter)
		if err != nil {
			return nil, err
		}
		return future, nil
	}
	j.mux.Lock()
	defer j.mux.Unlock()
	if j.sealed {
		return nil, fmt.Errorf("%v: %w", j.Name(), ErrJobFinished)
	}
	future := NewFuture()
	j.instigations = append(j.instigations, &Instigation{Flow: flow, Parameter: parameter, Future: future})
	return future, nil
}

// Seal stops accepting instigations and returns the requested ones
func (j *Job) Seal() []*Instigation {
	j.mux.Lock()
	defer j.mux.Unlock()
	j.sealed = true
	ret := j.instigations
	j.instigations = nil
	return ret
}

// Defer switches the job to asynchronous completion
func (j *Job) Defer() graph.Completion {
	j.mux.Lock()
	j.deferred = true
	j.mux.Unlock()
	return &completion{job: j}
}

// Deferred returns true once job logic switched to asynchronous completion
func (j *Job) Deferred() bool {
	j.mux.Lock()
	defer j.mux.Unlock()
	return j.deferred
}

// SetSpawner sets the function starting spawning flows
func (j *Job) SetSpawner(spawner Spawner) {
	j.spawner = spawner
}

// Bind sets the function receiving the job result; it is called once
func (j *Job) Bind(settle func(output interface{}, err error)) {
	j.settle = settle
}

// Settle reports the job result; only the first call counts
func (j *Job) Settle(output interface{}, err error) {
	j.once.Do(func() {
		if j.settle != nil {
			j.settle(output, err)
		}
	})
}

// Returned reports that job logic returned.  Errors settle the job right
// away; a nil error settles it unless the job deferred its completion.
func (j *Job) Returned(err error) {
	if err != nil {
		j.Settle(nil, err)
		return
	}
	j.mux.Lock()
	deferred := j.deferred
	j.mux.Unlock()
	if !deferred {
		j.Settle(j.Output(), nil)
	}
}

// AddObject binds a required resource.  Caller holds the process lock.
func (j *Job) AddObject(object *resource.ManagedObject) {
	if j.resources == nil {
		j.resources = make(map[string]*resource.ManagedObject)
	}
	j.resources[object.Name()] = object
	j.Objects = append(j.Objects, object)
}

// NewJob creates a job activation
func NewJob(id string, definition *graph.Job, parameter interface{}) *Job {
	return &Job{id: id, Definition: definition, parameter: parameter}
}

type completion struct {
	job *Job
}

func (c *completion) Complete(output interface{}) {
	c.job.SetOutput(output)
	c.job.Settle(output, nil)
}

func (c *completion) Fail(err error) {
	if err == nil {
		err = fmt.Errorf("%v: deferred completion failed", c.job.Name())
	}
	c.job.Settle(nil, err)
}

var _ graph.JobContext = (*Job)(nil)
