// Package resource implements the managed object container.  It binds
// resource definitions to concrete instances per scope (job, thread or
// process), coalesces concurrent loads of the same instance into a single
// acquisition, recycles pooled instances and runs cleanup exactly once when a
// scope is released.
//
// Scope state is guarded by the lock supplied at scope creation (the owning
// process lock); callers hold it for every Scope and ManagedObject method
// unless documented otherwise.
package resource
