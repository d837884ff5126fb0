package graph

import "errors"

// FailureKind is the closed set of failure kinds handlers are keyed by
type FailureKind string

const (
	FailureAny        FailureKind = "any"
	FailureResource   FailureKind = "resource"
	FailureDuty       FailureKind = "duty"
	FailureExecution  FailureKind = "execution"
	FailureScheduling FailureKind = "scheduling"
	FailureCleanup    FailureKind = "cleanup"
	// FailureInterrupt is a synthetic escalation injected by a collaborator
	FailureInterrupt FailureKind = "interrupt"
)

// Escalation maps a failure kind (optionally narrowed by a sentinel error) to a
// handler job.
type Escalation struct {
	Kind    FailureKind `json:"kind" yaml:"kind"`
	Is      error       `json:"-" yaml:"-"`
	Handler string      `json:"handler" yaml:"handler"`
}

// Matches returns true if the rule handles the failure
func (e *Escalation) Matches(kind FailureKind, err error) bool {
	if e.Kind != FailureAny && e.Kind != kind {
		return false
	}
	if e.Is != nil && !errors.Is(err, e.Is) {
		return false
	}
	return true
}

// Escalations is an ordered escalation table
type Escalations []*Escalation

// Lookup returns the first matching rule
func (e Escalations) Lookup(kind FailureKind, err error) *Escalation {
	for _, candidate := range e {
		if candidate.Matches(kind, err) {
			return candidate
		}
	}
	return nil
}
