package graph

import "fmt"

// Strategy defines how a flow instigates its job
type Strategy string

const (
	// StrategySequential appends the job to the instigating thread's flow.
	StrategySequential Strategy = "sequential"
	// StrategyParallel spawns a child thread that the parent joins.
	StrategyParallel Strategy = "parallel"
	// StrategyAsynchronous spawns a thread that the parent does not join.
	StrategyAsynchronous Strategy = "asynchronous"
)

// Flow is a continuation edge declared on a job.
//
// Explicit flows are instigated by job logic; Auto flows are instigated once the
// job completes, with the job output as parameter.  Escalations form the
// thread level table of a thread spawned by this flow.
type Flow struct {
	Name        string      `json:"name" yaml:"name"`
	Job         string      `json:"job" yaml:"job"`
	Strategy    Strategy    `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Auto        bool        `json:"auto,omitempty" yaml:"auto,omitempty"`
	Escalations Escalations `json:"escalations,omitempty" yaml:"escalations,omitempty"`
}

// NewFlow creates a flow
func NewFlow(name, job string, strategy Strategy) *Flow {
	return &Flow{Name: name, Job: job, Strategy: strategy}
}

// Spawns returns true when the flow runs on its own thread
func (f *Flow) Spawns() bool {
	return f.Strategy == StrategyParallel || f.Strategy == StrategyAsynchronous
}

// Validate checks strategy
func (f *Flow) Validate() error {
	switch f.Strategy {
	case "":
		f.Strategy = StrategySequential
	case StrategySequential, StrategyParallel, StrategyAsynchronous:
	default:
		return fmt.Errorf("flow %v: unsupported strategy %q", f.Name, f.Strategy)
	}
	return nil
}
