package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	assert.NotEqual(t, New(), New())
	assert.Len(t, New(), 36)

	restore := Generator
	defer func() { Generator = restore }()
	Generator = Sequence("job")
	assert.Equal(t, []string{"job-1", "job-2"}, []string{New(), New()})
}
