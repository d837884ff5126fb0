package model

import (
	"errors"
	"fmt"

	"github.com/viant/jobflow/model/graph"
)

// Graph is the resolved job graph an engine is constructed with
type Graph struct {
	Name        string                     `json:"name" yaml:"name"`
	Jobs        map[string]*graph.Job      `json:"jobs" yaml:"jobs"`
	Resources   map[string]*graph.Resource `json:"resources" yaml:"resources"`
	Escalations graph.Escalations          `json:"escalations,omitempty" yaml:"escalations,omitempty"`
}

// NewGraph creates an empty graph
func NewGraph(name string) *Graph {
	return &Graph{
		Name:      name,
		Jobs:      make(map[string]*graph.Job),
		Resources: make(map[string]*graph.Resource),
	}
}

// AddJob registers job definitions
func (g *Graph) AddJob(jobs ...*graph.Job) *Graph {
	for _, job := range jobs {
		g.Jobs[job.Name] = job
	}
	return g
}

// AddResource registers resource definitions
func (g *Graph) AddResource(resources ...*graph.Resource) *Graph {
	for _, resource := range resources {
		g.Resources[resource.Name] = resource
	}
	return g
}

// OnEscalation registers a process level escalation handler
func (g *Graph) OnEscalation(kind graph.FailureKind, handler string) *Graph {
	g.Escalations = append(g.Escalations, &graph.Escalation{Kind: kind, Handler: handler})
	return g
}

// Job returns a job definition
func (g *Graph) Job(name string) *graph.Job {
	return g.Jobs[name]
}

// Resource returns a resource definition
func (g *Graph) Resource(name string) *graph.Resource {
	return g.Resources[name]
}

// Validate checks that every reference in the graph resolves
func (g *Graph) Validate() error {
	if g == nil {
		return fmt.Errorf("graph was nil")
	}
	var errs []error
	for name, resource := range g.Resources {
		if resource.Name == "" {
			resource.Name = name
		}
		if err := resource.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for name, job := range g.Jobs {
		if job.Name == "" {
			job.Name = name
		}
		for _, resource := range job.Resources {
			if g.Resources[resource] == nil {
				errs = append(errs, fmt.Errorf("job %v: unknown resource %v", name, resource))
			}
		}
		if job.Next != "" && g.Jobs[job.Next] == nil {
			errs = append(errs, fmt.Errorf("job %v: unknown next job %v", name, job.Next))
		}
		for _, flow := range job.Flows {
			if err := flow.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("job %v: %w", name, err))
			}
			if g.Jobs[flow.Job] == nil {
				errs = append(errs, fmt.Errorf("job %v: flow %v targets unknown job %v", name, flow.Name, flow.Job))
			}
			errs = append(errs, g.validateEscalations(name+"/"+flow.Name, flow.Escalations)...)
		}
		for _, duty := range append(append([]*graph.Duty{}, job.Pre...), job.Post...) {
			if err := validateDuty(duty); err != nil {
				errs = append(errs, fmt.Errorf("job %v: %w", name, err))
			}
		}
		errs = append(errs, g.validateEscalations(name, job.Escalations)...)
	}
	errs = append(errs, g.validateEscalations(g.Name, g.Escalations)...)
	return errors.Join(errs...)
}

func (g *Graph) validateEscalations(owner string, table graph.Escalations) []error {
	var errs []error
	for _, rule := range table {
		if g.Jobs[rule.Handler] == nil {
			errs = append(errs, fmt.Errorf("%v: escalation %v targets unknown job %v", owner, rule.Kind, rule.Handler))
		}
	}
	return errs
}

func validateDuty(duty *graph.Duty) error {
	switch duty.Kind {
	case "":
		duty.Kind = graph.DutyFunc
		fallthrough
	case graph.DutyFunc:
		if duty.Run == nil {
			return fmt.Errorf("duty %v: missing Run", duty.Name)
		}
	case graph.DutyPolicy:
		if duty.Policy == nil {
			return fmt.Errorf("duty %v: missing Policy", duty.Name)
		}
	case graph.DutyLog:
	default:
		return fmt.Errorf("duty %v: unsupported kind %q", duty.Name, duty.Kind)
	}
	return nil
}
