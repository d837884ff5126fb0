package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandWith(t *testing.T) {
	vars := map[string]string{"FOO": "bar", "A": "1", "B": "2", "EMPTY": ""}
	lookup := func(key string) (string, bool) {
		value, ok := vars[key]
		return value, ok
	}
	testCases := []struct {
		description string
		input       string
		expect      string
	}{
		{description: "no references", input: "just a plain string", expect: "just a plain string"},
		{description: "single reference", input: "value is ${env.FOO}", expect: "value is bar"},
		{description: "multiple references", input: "${env.A}-${env.B}-${env.A}", expect: "1-2-1"},
		{description: "unset variable", input: "unset=${env.NOTSET}-end", expect: "unset=-end"},
		{description: "fallback", input: "url: ${env.NOTSET|/tmp/records}", expect: "url: /tmp/records"},
		{description: "set empty ignores fallback", input: "[${env.EMPTY|x}]", expect: "[]"},
		{description: "missing closing brace", input: "start ${env.FOO and ${env.A} end", expect: "start ${env.FOO and 1 end"},
		{description: "unterminated", input: "tail ${env.FOO", expect: "tail ${env.FOO"},
		{description: "empty key", input: "oops ${env.} done", expect: "oops  done"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.expect, ExpandWith(testCase.input, lookup))
		})
	}
}

func TestExpand(t *testing.T) {
	t.Setenv("JOBFLOW_TEST_DSN", "file:records.db")
	assert.Equal(t, "dsn=file:records.db", Expand("dsn=${env.JOBFLOW_TEST_DSN}"))
}
