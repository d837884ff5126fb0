// Package team provides the execution pools jobs run on.
//
// A Team accepts an Assignment and either runs it exactly once or reports a
// scheduling error; it never drops an accepted assignment.  Passive teams run
// inline on the caller's goroutine, Pool teams dispatch to a fixed set of
// workers consuming a messaging queue and Elastic teams start a goroutine per
// assignment, optionally bounded by a weighted semaphore.
package team
