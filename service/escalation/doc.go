// Package escalation resolves failures against the job, thread and process
// escalation tables, falling back to a default handler that always exists.
package escalation
