// Package criteria evaluates dao List parameters against entity fields
package criteria

import (
	"github.com/viant/jobflow/service/dao"
)

// Match returns false if a parameter named name does not accept value.
// Parameters with other names are ignored.
func Match(name, value string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name {
			continue
		}
		if !accepts(parameter.Value, value) {
			return false
		}
	}
	return true
}

// FilterByState matches the State parameter
func FilterByState(state string, parameters []*dao.Parameter) bool {
	return Match(dao.StateParameter, state, parameters)
}

func accepts(expected interface{}, value string) bool {
	switch actual := expected.(type) {
	case string:
		return actual == value
	case []string:
		for _, candidate := range actual {
			if candidate == value {
				return true
			}
		}
		return false
	}
	return true
}
