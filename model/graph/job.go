package graph

import "context"

type (
	// Func is the business logic of a job.  Returning an error escalates the job
	// with the execution failure kind.
	Func func(ctx context.Context, job JobContext) error

	// Job describes a unit of work: what it needs, what runs around it and
	// where the flow goes next.
	Job struct {
		Name        string      `json:"name" yaml:"name"`
		Team        string      `json:"team,omitempty" yaml:"team,omitempty"`
		Resources   []string    `json:"resources,omitempty" yaml:"resources,omitempty"`
		Pre         []*Duty     `json:"pre,omitempty" yaml:"pre,omitempty"`
		Post        []*Duty     `json:"post,omitempty" yaml:"post,omitempty"`
		Next        string      `json:"next,omitempty" yaml:"next,omitempty"`
		Flows       []*Flow     `json:"flows,omitempty" yaml:"flows,omitempty"`
		Escalations Escalations `json:"escalations,omitempty" yaml:"escalations,omitempty"`
		Run         Func        `json:"-" yaml:"-"`
	}
)

// NewJob creates a job definition
func NewJob(name string, run Func) *Job {
	return &Job{Name: name, Run: run}
}

// WithTeam binds the job to a named team
func (j *Job) WithTeam(team string) *Job {
	j.Team = team
	return j
}

// WithResources appends required resources
func (j *Job) WithResources(names ...string) *Job {
	j.Resources = append(j.Resources, names...)
	return j
}

// WithPre appends duties run before execution
func (j *Job) WithPre(duties ...*Duty) *Job {
	j.Pre = append(j.Pre, duties...)
	return j
}

// WithPost appends duties run after execution
func (j *Job) WithPost(duties ...*Duty) *Job {
	j.Post = append(j.Post, duties...)
	return j
}

// WithNext sets the sequential continuation
func (j *Job) WithNext(job string) *Job {
	j.Next = job
	return j
}

// WithFlow declares a flow the job may instigate
func (j *Job) WithFlow(flow *Flow) *Job {
	j.Flows = append(j.Flows, flow)
	return j
}

// OnEscalation registers a job level escalation handler
func (j *Job) OnEscalation(kind FailureKind, handler string) *Job {
	j.Escalations = append(j.Escalations, &Escalation{Kind: kind, Handler: handler})
	return j
}

// LookupFlow returns a declared flow by name
func (j *Job) LookupFlow(name string) *Flow {
	for _, flow := range j.Flows {
		if flow.Name == name {
			return flow
		}
	}
	return nil
}
