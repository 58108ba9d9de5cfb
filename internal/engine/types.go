package engine

// FileAction represents an action taken on a single output file.
type FileAction struct {
	Path   string
	Action string // "written", "removed", "missing", "present"
}

// RunResult holds the outcome of a run.
type RunResult struct {
	// Skipped is set when nothing changed and no output was produced.
	Skipped   bool
	FirstRun  bool
	Cloned    bool
	Variables map[string]any
	Written   []FileAction
	Removed   []FileAction
	// PostHookErr is the post-execution failure, if any. It does not fail
	// the run.
	PostHookErr error
}

// Files returns the written paths in order.
func (r *RunResult) Files() []string {
	paths := make([]string, len(r.Written))
	for i, w := range r.Written {
		paths[i] = w.Path
	}
	return paths
}

// CheckResult holds the outcome of a check operation.
type CheckResult struct {
	Clean bool
	// HasLock is false when no lock file has been written yet.
	HasLock       bool
	ConfigChanged bool
	Files         []FileAction
	Missing       []string
}
