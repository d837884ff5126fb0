package escalation

import (
	"fmt"

	"github.com/viant/jobflow/model/graph"
)

// Failure carries an escalated error; it is the parameter of handler jobs
type Failure struct {
	Kind      graph.FailureKind `json:"kind"`
	Job       string            `json:"job,omitempty"`
	JobID     string            `json:"jobId,omitempty"`
	ProcessID string            `json:"processId"`
	ThreadID  string            `json:"threadId,omitempty"`
	// Depth counts the handler jobs between this failure and the original one
	Depth int   `json:"depth,omitempty"`
	Err   error `json:"-"`
}

// Error returns failure message
func (f *Failure) Error() string {
	if f.Job == "" {
		return fmt.Sprintf("%v failure: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("%v failure in %v: %v", f.Kind, f.Job, f.Err)
}

// Unwrap returns underlying error
func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure creates a failure
func NewFailure(kind graph.FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}
