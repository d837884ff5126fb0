// Package executor invokes the business logic of a job.  Panics raised by job
// logic are recovered and reported as errors, and an optional listener
// observes every invocation.
package executor
