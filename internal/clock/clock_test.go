package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFreeze(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	restore := Freeze(at)
	assert.Equal(t, at, Now())
	assert.Equal(t, time.Duration(0), Since(at))
	assert.Equal(t, time.Hour, Since(at.Add(-time.Hour)))
	restore()
	assert.True(t, Now().After(at))
}
