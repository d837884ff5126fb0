package team

import "context"

// PassiveName is the name of the default inline team
const PassiveName = "passive"

// Passive runs assignments on the calling goroutine
type Passive struct {
	name string
}

// Name returns team name
func (p *Passive) Name() string { return p.name }

// Execute runs the assignment inline
func (p *Passive) Execute(ctx context.Context, assignment Assignment) error {
	assignment.Run(ctx)
	return nil
}

// NewPassive creates a passive team
func NewPassive(name string) *Passive {
	if name == "" {
		name = PassiveName
	}
	return &Passive{name: name}
}
