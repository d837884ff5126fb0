// Package policy provides an optional admission layer for jobs.  A Policy can
// be attached to an invocation through the context, configured engine-wide, or
// declared on a job as a policy duty; engines without a policy run every job.
package policy
