package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Admission modes recognised by the engine.
const (
	ModeAsk  = "ask"  // ask before every job
	ModeAuto = "auto" // run automatically (default)
	ModeDeny = "deny" // block every job
)

// ErrDenied is returned when a policy rejects a job
var ErrDenied = errors.New("job denied by policy")

// AskFunc is invoked when Mode==ask.  Returning true admits the job.
// Implementations MAY mutate the policy (for example switching to ModeAuto
// after the first approval).
type AskFunc func(ctx context.Context, job string, parameter interface{}, p *Policy) bool

// Policy controls which jobs may run.
//
//   - Mode controls the high-level behaviour (ask / auto / deny).
//   - AllowList, BlockList filter job names regardless of Mode.
//   - Ask is only used when Mode==ask.
//
// A nil *Policy admits everything.
type Policy struct {
	Mode      string
	AllowList []string
	BlockList []string
	Ask       AskFunc
}

// Config represents the declarative, serialisable part of a Policy.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy (without
// AskFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed evaluates AllowList / BlockList with case-insensitive job names.
func (p *Policy) IsAllowed(job string) bool {
	if p == nil {
		return true
	}
	normalized := strings.ToLower(job)
	// BlockList has priority.
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}
	return false
}

// Admit returns nil when the job may run, or an error wrapping ErrDenied.
func (p *Policy) Admit(ctx context.Context, job string, parameter interface{}) error {
	if p == nil {
		return nil
	}
	if !p.IsAllowed(job) {
		return fmt.Errorf("%w: %v is not allowed", ErrDenied, job)
	}
	switch strings.ToLower(p.Mode) {
	case ModeDeny:
		return fmt.Errorf("%w: mode deny", ErrDenied)
	case ModeAsk:
		if p.Ask == nil || !p.Ask(ctx, job, parameter, p) {
			return fmt.Errorf("%w: %v was not approved", ErrDenied, job)
		}
	}
	return nil
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy, nil when absent.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
