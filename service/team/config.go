package team

import (
	"fmt"
	"log/slog"
	"time"
)

// Kind identifies a team implementation
type Kind string

const (
	KindPassive Kind = "passive"
	KindPool    Kind = "pool"
	KindElastic Kind = "elastic"
)

// Config describes one team
type Config struct {
	Name string `json:"name" yaml:"name"`
	Kind Kind   `json:"kind" yaml:"kind"`
	// Workers is the fixed worker count of a pool team
	Workers int `json:"workers,omitempty" yaml:"workers,omitempty"`
	// QueueSize bounds pending assignments of a pool team
	QueueSize int `json:"queueSize,omitempty" yaml:"queueSize,omitempty"`
	// SubmitTimeout is how long a pool team waits for queue space
	SubmitTimeout time.Duration `json:"submitTimeout,omitempty" yaml:"submitTimeout,omitempty"`
	// MaxConcurrent bounds an elastic team, zero means unbounded
	MaxConcurrent int `json:"maxConcurrent,omitempty" yaml:"maxConcurrent,omitempty"`
}

// Validate checks configuration
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("team name was empty")
	}
	switch c.Kind {
	case "":
		c.Kind = KindPassive
	case KindPassive, KindElastic:
	case KindPool:
		if c.Workers <= 0 {
			return fmt.Errorf("team %v: workers must be positive", c.Name)
		}
	default:
		return fmt.Errorf("team %v: unsupported kind %q", c.Name, c.Kind)
	}
	if c.MaxConcurrent < 0 || c.QueueSize < 0 {
		return fmt.Errorf("team %v: negative limits", c.Name)
	}
	return nil
}

// New builds a team from configuration
func New(config Config, logger *slog.Logger) (Team, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	switch config.Kind {
	case KindPool:
		return NewPool(config.Name, config.Workers, config.QueueSize, config.SubmitTimeout, logger), nil
	case KindElastic:
		return NewElastic(config.Name, config.MaxConcurrent), nil
	}
	return NewPassive(config.Name), nil
}
