package processor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownJob is returned when invoking a job the graph does not define
	ErrUnknownJob = errors.New("unknown job")
	// ErrUnknownTeam is the scheduling failure of a job bound to an unregistered team
	ErrUnknownTeam = errors.New("unknown team")
	// ErrNotRunning is returned when interrupting a process that already finished
	ErrNotRunning = errors.New("process not running")
	// ErrTimeout is the interrupt cause of a process exceeding its timeout
	ErrTimeout = errors.New("process timed out")
)

// Config represents processor configuration
type Config struct {
	// MaxEscalationDepth bounds handler jobs escalating again; deeper
	// failures go straight to the default handler
	MaxEscalationDepth int `json:"maxEscalationDepth" yaml:"maxEscalationDepth"`
}

// DefaultConfig returns the default processor configuration
func DefaultConfig() Config {
	return Config{MaxEscalationDepth: 16}
}

// Validate checks configuration
func (c *Config) Validate() error {
	if c.MaxEscalationDepth <= 0 {
		return fmt.Errorf("maxEscalationDepth must be positive, got %v", c.MaxEscalationDepth)
	}
	return nil
}
