package graph

type (
	// JobContext is the view of a running job given to job logic and duties.
	JobContext interface {
		ID() string
		Name() string
		ProcessID() string
		ThreadID() string
		Parameter() interface{}
		// Resource returns a loaded resource declared by the job
		Resource(name string) (interface{}, error)
		Output() interface{}
		SetOutput(output interface{})
		// Instigate schedules a declared flow.  Sequential flows are appended
		// once the job completes; parallel and asynchronous flows start their
		// thread right away.
		Instigate(flow string, parameter interface{}) (Future, error)
		// Defer switches the job to asynchronous completion; the engine waits
		// for the returned Completion to be signalled.
		Defer() Completion
	}

	// Completion signals the end of a deferred job
	Completion interface {
		Complete(output interface{})
		Fail(err error)
	}

	// Future resolves when an instigated flow has finished
	Future interface {
		Done() <-chan struct{}
		Err() error
	}
)
