// Package hooks runs the shell commands declared under `actions` at the
// stages of a run.
package hooks

import (
	"fmt"
	"slices"
	"strings"
)

// Stage is a point in the run at which hooks execute.
type Stage string

const (
	InitialVariables Stage = "initial-variables"
	PreVariables     Stage = "pre-variables"
	PostVariables    Stage = "post-variables"
	InitialDefaults  Stage = "initial-defaults"
	PreDefaults      Stage = "pre-defaults"
	PostDefaults     Stage = "post-defaults"
	InitialExecution Stage = "initial-execution"
	PreExecution     Stage = "pre-execution"
	PostExecution    Stage = "post-execution"
)

// Stages lists every stage in run order.
var Stages = []Stage{
	InitialVariables, PreVariables, PostVariables,
	InitialDefaults, PreDefaults, PostDefaults,
	InitialExecution, PreExecution, PostExecution,
}

// Hooks returns the action names executed for the stage, in order.
func (s Stage) Hooks() []string {
	switch s {
	case InitialExecution:
		return []string{"initial", string(InitialExecution)}
	case PreExecution:
		return []string{"pre", string(PreExecution)}
	case PostExecution:
		return []string{"post", string(PostExecution)}
	}
	return []string{string(s)}
}

// FirstRunOnly reports whether the stage is skipped once a lock record exists.
func (s Stage) FirstRunOnly() bool {
	return s == InitialVariables || s == InitialDefaults || s == InitialExecution
}

// Selection is the --actions choice.
type Selection string

const (
	SelectAll  Selection = "all"
	SelectNone Selection = "none"
)

// selectionAliases maps the short --actions values to their stage.
var selectionAliases = map[Selection]Stage{
	"initial": InitialExecution,
	"pre":     PreExecution,
	"post":    PostExecution,
}

// SelectionValues lists the accepted --actions values.
func SelectionValues() []string {
	values := []string{string(SelectAll), string(SelectNone), "initial", "pre", "post"}
	for _, s := range Stages {
		values = append(values, string(s))
	}
	return values
}

// ParseSelection validates an --actions value. Empty means all.
func ParseSelection(v string) (Selection, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return SelectAll, nil
	}
	if !slices.Contains(SelectionValues(), v) {
		return "", fmt.Errorf("invalid actions %q (must be one of: %s)", v, strings.Join(SelectionValues(), ", "))
	}
	return Selection(v), nil
}

// Enabled reports whether stage runs under the selection.
func (sel Selection) Enabled(stage Stage, hasPrevious bool) bool {
	if stage.FirstRunOnly() && hasPrevious {
		return false
	}
	switch sel {
	case SelectAll, "":
		return true
	case SelectNone:
		return false
	}
	if alias, ok := selectionAliases[sel]; ok {
		return alias == stage
	}
	return Stage(sel) == stage
}
