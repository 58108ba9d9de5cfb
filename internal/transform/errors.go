package transform

import "fmt"

// VariableNotFoundError reports a token whose variable is not defined.
type VariableNotFoundError struct {
	Name string
}

func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable %q not found in the variables list", e.Name)
}
