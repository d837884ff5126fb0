package execution

import (
	"context"
	"reflect"
)

// Context carries the process and job to job logic
type Context struct {
	process *Process
	job     *Job
	context.Context
}

var ProcessKey = KeyOf[*Process]()
var JobKey = KeyOf[*Job]()

func (c *Context) Value(key any) any {
	switch key {
	case ProcessKey:
		return c.process
	case JobKey:
		return c.job
	}
	return c.Context.Value(key)
}

// ContextValue returns the value of the provided type from the context
func ContextValue[T any](ctx context.Context) T {
	key := KeyOf[T]()
	if value := ctx.Value(key); value != nil {
		return value.(T)
	}
	var t T
	return t
}

// KeyOf returns the reflect.Type of the provided type
func KeyOf[T any]() reflect.Type {
	var a T
	return reflect.TypeOf(a)
}

// NewContext derives a job context
func NewContext(ctx context.Context, process *Process, job *Job) *Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Context{Context: ctx, process: process, job: job}
}
