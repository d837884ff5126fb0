// Package event publishes process lifecycle events to listeners over a
// message queue.
package event

import "time"

// Type identifies a lifecycle event
type Type string

const (
	ProcessStarted  Type = "processStarted"
	ProcessFinished Type = "processFinished"
	JobCompleted    Type = "jobCompleted"
	JobEscalated    Type = "jobEscalated"
)

// Context locates an event within a process
type Context struct {
	ProcessID   string `json:"processID"`
	ThreadID    string `json:"threadID,omitempty"`
	JobID       string `json:"jobID,omitempty"`
	Job         string `json:"job,omitempty"`
	EventType   Type   `json:"eventType"`
	TimeTakenMs int64  `json:"timeTakenMs,omitempty"`
}

type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Metadata:  make(map[string]interface{}),
		Data:      data,
	}
}
