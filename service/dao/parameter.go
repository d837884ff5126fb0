package dao

// StateParameter filters listed entities by state
const StateParameter = "State"

// Parameter is a named List filter; Value is a string or a []string of
// accepted values
type Parameter struct {
	Name  string
	Value interface{}
}

func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}

// NewStateParameter returns a filter accepting any of states
func NewStateParameter(states ...string) *Parameter {
	return NewParameter(StateParameter, states...)
}
