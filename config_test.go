package jobflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jobflow/service/team"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("JOBFLOW_TEST_DSN", "file::memory:")
	t.Setenv("JOBFLOW_TEST_WORKERS", "4")
	t.Setenv("JOBFLOW_TEST_ADMIN", "127.0.0.1: 9090 # not a comment")
	location := filepath.Join(t.TempDir(), "jobflow.yaml")
	require.NoError(t, os.WriteFile(location, []byte(`
log:
  level: debug
  format: json
teams:
  - name: io
    kind: pool
    workers: ${env.JOBFLOW_TEST_WORKERS}
    queueSize: 16
    submitTimeout: 2s
  - name: cpu
    kind: elastic
    maxConcurrent: 8
processor:
  maxEscalationDepth: 4
policy:
  block: [drop]
store:
  driver: sqlite
  url: ${env.JOBFLOW_TEST_DSN}
metrics:
  enabled: true
admin:
  addr: "${env.JOBFLOW_TEST_ADMIN}"
`), 0o644))

	config, err := LoadConfig(context.Background(), location)
	require.NoError(t, err)
	assert.Equal(t, "debug", config.Log.Level)
	require.Len(t, config.Teams, 2)
	assert.Equal(t, team.KindPool, config.Teams[0].Kind)
	assert.Equal(t, 2*time.Second, config.Teams[0].SubmitTimeout)
	assert.Equal(t, 4, config.Teams[0].Workers)
	assert.Equal(t, "127.0.0.1: 9090 # not a comment", config.Admin.Addr)
	assert.Equal(t, 8, config.Teams[1].MaxConcurrent)
	assert.Equal(t, 4, config.Processor.MaxEscalationDepth)
	assert.Equal(t, []string{"drop"}, config.Policy.BlockList)
	assert.Equal(t, StoreSQLite, config.Store.Driver)
	assert.Equal(t, "file::memory:", config.Store.URL)
	assert.True(t, config.Metrics.Enabled)
	assert.Equal(t, DefaultConfig().Resources, config.Resources)

	_, err = LoadConfig(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		mutate      func(c *Config)
		expectErr   bool
	}{
		{description: "defaults", mutate: func(c *Config) {}},
		{description: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, expectErr: true},
		{description: "duplicate team", mutate: func(c *Config) {
			c.Teams = append(c.Teams, team.Config{Name: "elastic", Kind: team.KindPassive})
		}, expectErr: true},
		{description: "pool without workers", mutate: func(c *Config) {
			c.Teams = []team.Config{{Name: "io", Kind: team.KindPool}}
		}, expectErr: true},
		{description: "zero escalation depth", mutate: func(c *Config) { c.Processor.MaxEscalationDepth = 0 }, expectErr: true},
		{description: "fs store without url", mutate: func(c *Config) { c.Store.Driver = StoreFS }, expectErr: true},
		{description: "unknown store", mutate: func(c *Config) { c.Store.Driver = "redis" }, expectErr: true},
		{description: "admin without addr", mutate: func(c *Config) {
			c.Admin.Enabled = true
			c.Admin.Addr = ""
		}, expectErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			config := DefaultConfig()
			testCase.mutate(config)
			err := config.Validate()
			if testCase.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
