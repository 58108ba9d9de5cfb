// Package render produces the output files of a run.
package render

import (
	"fmt"
	"maps"
	"os"
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/logging"
	"github.com/brendtumi/feasible/internal/sandbox"
	"github.com/brendtumi/feasible/internal/transform"
)

// DefaultPerm is the mode of generated files.
const DefaultPerm os.FileMode = 0644

// Output is the rendered content of one path.
type Output struct {
	Path    string
	Content string
}

// Renderer resolves file descriptors and writes them below Root.
type Renderer struct {
	Root      string
	Separator string
	Evaluator *sandbox.Evaluator
	Log       logrus.FieldLogger
}

// Render resolves files against vars and writes the results. It returns the
// written paths in declaration order.
func (r *Renderer) Render(files config.Files, vars map[string]any) ([]string, error) {
	outputs, err := r.Resolve(files, vars)
	if err != nil {
		return nil, err
	}
	return r.Write(outputs)
}

// Resolve turns every descriptor into content without touching the disk.
// Content generated for earlier paths is visible to later ones under its
// sanitized path (see Key).
func (r *Renderer) Resolve(files config.Files, vars map[string]any) ([]Output, error) {
	var outputs []Output
	generated := map[string]any{}

	for _, f := range files {
		env := maps.Clone(vars)
		if env == nil {
			env = map[string]any{}
		}
		maps.Copy(env, generated)

		content, ok, err := r.resolveOne(f, env)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", f.Path, err)
		}
		if !ok {
			continue
		}
		outputs = append(outputs, Output{Path: f.Path, Content: content})
		generated[Key(f.Path)] = content
	}
	return outputs, nil
}

func (r *Renderer) resolveOne(f config.FileEntry, env map[string]any) (string, bool, error) {
	d := f.Descriptor
	switch d.Kind {
	case config.KindPlain, config.KindTyped:
		s, err := r.content(d.Content, env)
		return s, err == nil, err
	case config.KindConditional:
		return r.conditional(f.Path, d.Conditional, env)
	}
	r.log().Warn(logging.Aligned(f.Path, "Unrecognizable file type"))
	if d.Reason != "" {
		r.log().Debugf("%s: %s", f.Path, d.Reason)
	}
	return "", false, nil
}

func (r *Renderer) conditional(path string, c *config.Conditional, env map[string]any) (string, bool, error) {
	met, err := r.evaluator().Eval(c.Condition, env)
	if err != nil {
		r.log().Warnf("Custom condition on %q throws an error: %v", path, err)
		met = false
	}

	switch {
	case met:
		s, err := r.content(c.Success, env)
		return s, err == nil, err
	case c.Fail != nil:
		s, err := r.content(*c.Fail, env)
		return s, err == nil, err
	}
	r.log().Warn(logging.Aligned(path, "Condition not met."))
	return "", false, nil
}

func (r *Renderer) content(c config.Content, env map[string]any) (string, error) {
	if c.Typed != nil {
		return transform.Structured(c.Typed, env)
	}
	sep := r.Separator
	if sep == "" {
		sep = transform.DefaultSeparator
	}
	return transform.Substitute(c.Template, env, sep)
}

// Write stores outputs below Root in order. Existing files are snapshotted
// first; when a write fails every file already written is put back.
func (r *Renderer) Write(outputs []Output) ([]string, error) {
	var (
		paths []string
		snaps []*sandbox.Snapshot
	)
	rollback := func() {
		for i := len(snaps) - 1; i >= 0; i-- {
			if err := snaps[i].Restore(); err != nil {
				r.log().Warnf("restoring %s: %v", snaps[i].Path, err)
			}
		}
	}

	for _, o := range outputs {
		snap, err := sandbox.TakeSnapshot(r.Root, o.Path)
		if err != nil {
			rollback()
			return nil, fmt.Errorf("writing %s: %w", o.Path, err)
		}
		if err := sandbox.SafeWrite(r.Root, o.Path, []byte(o.Content), DefaultPerm); err != nil {
			rollback()
			return nil, fmt.Errorf("writing %s: %w", o.Path, err)
		}
		snaps = append(snaps, snap)
		paths = append(paths, o.Path)
		r.log().Info(logging.Aligned(o.Path, "File Generated."))
	}
	return paths, nil
}

var nonIdent = regexp.MustCompile(`(?i)[^a-z0-9]+`)

// Key is the variable name under which the content of path is exposed,
// e.g. "config/app.json" becomes "config_app_json".
func Key(path string) string {
	return nonIdent.ReplaceAllString(path, "_")
}

func (r *Renderer) evaluator() *sandbox.Evaluator {
	if r.Evaluator == nil {
		return &sandbox.Evaluator{}
	}
	return r.Evaluator
}

func (r *Renderer) log() logrus.FieldLogger {
	if r.Log == nil {
		return logging.Discard()
	}
	return r.Log
}
