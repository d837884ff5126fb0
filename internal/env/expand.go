// Package env expands ${env.KEY} references in configuration text.
package env

import (
	"os"
	"strings"
	"unicode"
)

const prefix = "${env."

// Lookup resolves a variable name
type Lookup func(key string) (string, bool)

// Expand replaces ${env.KEY} and ${env.KEY|fallback} with the value of KEY.
// Unset keys expand to the fallback, or to "" without one.  Malformed
// references are kept literally.
func Expand(text string) string {
	return ExpandWith(text, os.LookupEnv)
}

// ExpandWith is Expand with a custom lookup
func ExpandWith(text string, lookup Lookup) string {
	var b strings.Builder
	for {
		start := strings.Index(text, prefix)
		if start < 0 {
			b.WriteString(text)
			return b.String()
		}
		b.WriteString(text[:start])
		rest := text[start+len(prefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			b.WriteString(text[start:])
			return b.String()
		}
		key, fallback, _ := strings.Cut(rest[:end], "|")
		if !isKey(key) {
			b.WriteString(prefix)
			text = rest
			continue
		}
		if value, ok := lookup(key); ok {
			b.WriteString(value)
		} else {
			b.WriteString(fallback)
		}
		text = rest[end+1:]
	}
}

func isKey(key string) bool {
	for _, r := range key {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return false
		}
	}
	return true
}
