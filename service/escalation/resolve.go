package escalation

import (
	"context"
	"log/slog"

	"github.com/viant/jobflow/model/graph"
)

// Level is the scope a handler was resolved at
type Level string

const (
	LevelJob     Level = "job"
	LevelThread  Level = "thread"
	LevelProcess Level = "process"
	LevelDefault Level = "default"
)

// Scoped is one escalation table in a resolution chain
type Scoped struct {
	Level Level
	Table graph.Escalations
}

// Resolution is the outcome of resolving a failure
type Resolution struct {
	Handler string
	Level   Level
	Rule    *graph.Escalation
}

// IsDefault returns true when no table matched
func (r Resolution) IsDefault() bool {
	return r.Level == LevelDefault
}

// Resolve walks chain in order and returns the first matching rule; chain is
// expected to list job, then thread (innermost first), then process tables.
func Resolve(failure *Failure, chain ...Scoped) Resolution {
	for _, scoped := range chain {
		if rule := scoped.Table.Lookup(failure.Kind, failure.Err); rule != nil {
			return Resolution{Handler: rule.Handler, Level: scoped.Level, Rule: rule}
		}
	}
	return Resolution{Level: LevelDefault}
}

// DefaultHandler records a failure that no table handled; it cannot escalate
type DefaultHandler func(ctx context.Context, failure *Failure)

// LogHandler returns a default handler writing an error log line
func LogHandler(logger *slog.Logger) DefaultHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, failure *Failure) {
		logger.ErrorContext(ctx, "unhandled escalation",
			"process_id", failure.ProcessID,
			"thread_id", failure.ThreadID,
			"job", failure.Job,
			"kind", string(failure.Kind),
			"error", failure.Err)
	}
}
