package jobflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/viant/afs"
	"github.com/viant/jobflow/internal/env"
	"github.com/viant/jobflow/metrics"
	"github.com/viant/jobflow/policy"
	"github.com/viant/jobflow/service/processor"
	"github.com/viant/jobflow/service/resource"
	"github.com/viant/jobflow/service/team"
	"github.com/viant/jobflow/tracing"
	"gopkg.in/yaml.v3"
)

// Store drivers of finished process records
const (
	StoreMemory = "memory"
	StoreFS     = "fs"
	StoreSQLite = "sqlite"
)

// Config is a serialisable representation of the engine configuration.  The
// zero value of every section inherits its package defaults.
type Config struct {
	Log       LogConfig        `json:"log" yaml:"log"`
	Teams     []team.Config    `json:"teams,omitempty" yaml:"teams,omitempty"`
	Resources resource.Config  `json:"resources" yaml:"resources"`
	Processor processor.Config `json:"processor" yaml:"processor"`
	Policy    *policy.Config   `json:"policy,omitempty" yaml:"policy,omitempty"`
	Store     StoreConfig      `json:"store" yaml:"store"`
	Tracing   tracing.Config   `json:"tracing" yaml:"tracing"`
	Metrics   metrics.Config   `json:"metrics" yaml:"metrics"`
	Events    EventsConfig     `json:"events" yaml:"events"`
	Admin     AdminConfig      `json:"admin" yaml:"admin"`
}

// EventsConfig controls lifecycle event publishing
type EventsConfig struct {
	// Buffer is the event queue capacity
	Buffer int `json:"buffer" yaml:"buffer"`
	// PublishTimeout bounds how long a full queue may delay the engine
	PublishTimeout time.Duration `json:"publishTimeout" yaml:"publishTimeout"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	// Format is text or json
	Format string `json:"format" yaml:"format"`
}

// StoreConfig selects the finished process record store
type StoreConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	// URL is the base URL of the fs driver or the DSN of the sqlite driver
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// AdminConfig controls the admin HTTP server
type AdminConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

// DefaultConfig returns a Config with the package defaults.  Callers may
// modify the returned struct before passing it to WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Teams: []team.Config{
			{Name: "elastic", Kind: team.KindElastic},
		},
		Resources: resource.DefaultConfig(),
		Processor: processor.DefaultConfig(),
		Store:     StoreConfig{Driver: StoreMemory},
		Events:    EventsConfig{Buffer: 1024, PublishTimeout: 100 * time.Millisecond},
		Admin:     AdminConfig{Addr: ":8080"},
	}
}

// Validate returns aggregated error describing invalid settings or nil
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}
	names := map[string]bool{}
	for i := range c.Teams {
		aTeam := &c.Teams[i]
		if err := aTeam.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if names[aTeam.Name] {
			errs = append(errs, fmt.Errorf("team %v: duplicate name", aTeam.Name))
		}
		names[aTeam.Name] = true
	}
	if c.Resources.MaxIdle < 0 {
		errs = append(errs, fmt.Errorf("resources.maxIdle must not be negative"))
	}
	if err := c.Processor.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("processor: %w", err))
	}
	switch c.Store.Driver {
	case "", StoreMemory:
	case StoreFS, StoreSQLite:
		if c.Store.URL == "" {
			errs = append(errs, fmt.Errorf("store %v: url was empty", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported store driver %q", c.Store.Driver))
	}
	if c.Events.Buffer < 0 || c.Events.PublishTimeout < 0 {
		errs = append(errs, fmt.Errorf("events: negative limits"))
	}
	if c.Admin.Enabled && c.Admin.Addr == "" {
		errs = append(errs, fmt.Errorf("admin.addr was empty"))
	}
	return errors.Join(errs...)
}

func (c *LogConfig) level() (slog.Level, error) {
	var ret slog.Level
	if c.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := ret.UnmarshalText([]byte(c.Level)); err != nil {
		return ret, fmt.Errorf("log.level: %w", err)
	}
	return ret, nil
}

// LoadConfig reads a YAML configuration from any afs supported URL on top
// of DefaultConfig.  ${env.KEY} references are expanded in scalar values
// after parsing, so expanded text never changes the document structure.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v: %w", URL, err)
	}
	ret := DefaultConfig()
	document := &yaml.Node{}
	if err = yaml.Unmarshal(data, document); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if document.Kind != 0 {
		expandNode(document)
		if err = document.Decode(ret); err != nil {
			return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
		}
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return ret, nil
}

// expandNode expands env references in every scalar.  Expanded plain scalars
// drop their resolved tag so numbers and durations still decode.
func expandNode(node *yaml.Node) {
	if node.Kind == yaml.ScalarNode {
		if value := env.Expand(node.Value); value != node.Value {
			node.Value = value
			if node.Style == 0 {
				node.Tag = ""
			}
		}
		return
	}
	for _, child := range node.Content {
		expandNode(child)
	}
}
