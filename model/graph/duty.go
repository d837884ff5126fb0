package graph

import (
	"context"

	"github.com/viant/jobflow/policy"
)

// DutyKind is the closed set of administrative duties
type DutyKind string

const (
	// DutyFunc runs Duty.Run
	DutyFunc DutyKind = "func"
	// DutyPolicy checks the job name against Duty.Policy
	DutyPolicy DutyKind = "policy"
	// DutyLog writes a structured log line for the job
	DutyLog DutyKind = "log"
)

// DutyRunFunc is the logic of a DutyFunc duty
type DutyRunFunc func(ctx context.Context, job JobContext) error

// Duty is an administrative hook run before or after a job
type Duty struct {
	Name   string         `json:"name" yaml:"name"`
	Kind   DutyKind       `json:"kind,omitempty" yaml:"kind,omitempty"`
	Run    DutyRunFunc    `json:"-" yaml:"-"`
	Policy *policy.Policy `json:"-" yaml:"-"`
}

// NewDuty creates a func duty
func NewDuty(name string, run DutyRunFunc) *Duty {
	return &Duty{Name: name, Kind: DutyFunc, Run: run}
}

// NewPolicyDuty creates a policy duty
func NewPolicyDuty(name string, p *policy.Policy) *Duty {
	return &Duty{Name: name, Kind: DutyPolicy, Policy: p}
}

// NewLogDuty creates a log duty
func NewLogDuty(name string) *Duty {
	return &Duty{Name: name, Kind: DutyLog}
}
