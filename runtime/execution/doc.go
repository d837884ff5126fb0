// Package execution holds the runtime state of a process: its threads, the
// flow of jobs each thread runs and the futures resolved as they finish.
//
// Every mutation of process, thread or job bookkeeping happens under the
// single process lock, see Process.Mutate.
package execution
