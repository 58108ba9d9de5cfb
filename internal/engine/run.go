// Package engine drives a feasible run: variables, hooks, cleanup, file
// generation and the lock file.
package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/hooks"
	"github.com/brendtumi/feasible/internal/lock"
	"github.com/brendtumi/feasible/internal/logging"
	"github.com/brendtumi/feasible/internal/prompt"
	"github.com/brendtumi/feasible/internal/render"
	"github.com/brendtumi/feasible/internal/resolve"
	"github.com/brendtumi/feasible/internal/sandbox"
	"github.com/brendtumi/feasible/internal/shell"
	"github.com/brendtumi/feasible/internal/transform"
)

// Cloner clones a repository into a directory.
type Cloner interface {
	Clone(ctx context.Context, url, target string) error
}

// RunEngine orchestrates a run.
type RunEngine struct {
	ProjectRoot string
	// LockPath is resolved against ProjectRoot when relative.
	LockPath  string
	Prompter  prompt.Prompter
	Runner    shell.Runner
	Cloner    Cloner
	Evaluator *sandbox.Evaluator
	Log       logrus.FieldLogger
	// NewID generates values for random variables (default: UUID v4).
	NewID func() string
}

// RunOptions configures a run.
type RunOptions struct {
	Force         bool
	NoClean       bool
	NoInteraction bool
	Parallel      bool
	Actions       hooks.Selection
	Overrides     []resolve.Override
	Separator     string
}

// Run executes the configuration. Pre-execution hook, clone and render
// failures restore the previous lock file before the error is returned.
// Post-execution hook failures are logged and reported in the result only.
func (e *RunEngine) Run(ctx context.Context, loaded *config.Loaded, opts RunOptions) (*RunResult, error) {
	log := e.log()
	cfg := loaded.Config
	sep := opts.Separator
	if sep == "" {
		sep = transform.DefaultSeparator
	}

	store := lock.NewStore(e.lockPath(), lock.Checksum{File: loaded.Source, Hash: loaded.Fingerprint}, log)
	store.Load()
	log.Debug("Lock file read")

	result := &RunResult{FirstRun: !store.HasPrevious}
	runner := e.runner()
	exec := &hooks.Executor{
		Runner:    runner,
		Actions:   cfg.Actions,
		Selection: opts.Actions,
		Parallel:  opts.Parallel,
		Separator: sep,
		Log:       log,
	}
	pipeline := &resolve.Pipeline{
		Prompter:  e.prompter(),
		Runner:    runner,
		Separator: sep,
		Log:       log,
		NewID:     e.NewID,
	}
	stage := func(s hooks.Stage, vars map[string]any) error {
		return exec.RunStage(ctx, s, store.HasPrevious, vars)
	}

	noUI := opts.NoInteraction && store.HasPrevious
	if opts.NoInteraction && !store.HasPrevious {
		log.Warn("There is no previous lock file, non-interaction mode disabled!")
	}

	for _, s := range []hooks.Stage{hooks.InitialVariables, hooks.PreVariables} {
		if err := stage(s, map[string]any{}); err != nil {
			return nil, err
		}
	}

	var answers map[string]any
	if !noUI && (opts.Force || store.NeedsUpdate()) {
		var err error
		if answers, err = pipeline.Prompt(ctx, cfg.Variables, store); err != nil {
			return nil, err
		}
	} else {
		answers = store.PreviousVariables()
	}
	if answers == nil {
		answers = map[string]any{}
	}
	resolve.ApplyOverrides(answers, opts.Overrides)

	for _, s := range []hooks.Stage{hooks.PostVariables, hooks.InitialDefaults, hooks.PreDefaults} {
		if err := stage(s, answers); err != nil {
			return nil, err
		}
	}

	missing := resolve.MissingDefaults(cfg.Defaults, answers)
	vars := answers
	if len(missing) > 0 {
		var err error
		if vars, err = pipeline.ResolveDefaults(ctx, missing, answers); err != nil {
			return nil, err
		}
	}
	store.SetVariables(vars)
	result.Variables = vars

	if err := stage(hooks.PostDefaults, vars); err != nil {
		return nil, err
	}

	required := store.NeedsUpdate() || opts.Force || len(missing) > 0
	log.Debugf("File export required: %t", required)
	if !noUI && !required {
		log.Warn("No action required.\nIf you like to force re-run, use \"-f\" or \"--force\" argument.")
		if err := store.RemoveBackup(); err != nil {
			log.WithError(err).Warn("Could not remove lock backup")
		}
		result.Skipped = true
		return result, nil
	}

	for _, s := range []hooks.Stage{hooks.InitialExecution, hooks.PreExecution} {
		if err := stage(s, vars); err != nil {
			return nil, e.rollback(store, err)
		}
	}

	if cfg.Repository != nil && !store.HasPrevious {
		if err := e.clone(ctx, cfg.Repository, vars, sep); err != nil {
			return nil, e.rollback(store, err)
		}
		result.Cloned = true
	}

	renderer := &render.Renderer{
		Root:      e.root(),
		Separator: sep,
		Evaluator: e.Evaluator,
		Log:       log,
	}
	// Contents are resolved before cleanup so a failing template leaves the
	// previous outputs in place.
	outputs, err := renderer.Resolve(cfg.Files, vars)
	if err != nil {
		return nil, e.rollback(store, err)
	}

	if !opts.NoClean && store.HasPrevious {
		result.Removed = Cleanup(e.root(), store.CleanupList(), log)
	}

	paths, err := renderer.Write(outputs)
	if err != nil {
		return nil, e.rollback(store, err)
	}
	for _, p := range paths {
		result.Written = append(result.Written, FileAction{Path: p, Action: "written"})
	}
	store.SetFiles(paths)

	if err := store.Save(); err != nil {
		log.Errorf("Got error while writing lock file: %v", err)
		return nil, err
	}

	if err := stage(hooks.PostExecution, vars); err != nil {
		log.WithError(err).Error("Post execution hooks failed")
		result.PostHookErr = err
	}
	if err := store.RemoveBackup(); err != nil {
		log.WithError(err).Warn("Could not remove lock backup")
	}
	return result, nil
}

func (e *RunEngine) clone(ctx context.Context, repo *config.Repository, vars map[string]any, sep string) error {
	url, err := transform.Substitute(repo.URL, vars, sep)
	if err != nil {
		return fmt.Errorf("repository url: %w", err)
	}
	target, err := transform.Substitute(repo.Target, vars, sep)
	if err != nil {
		return fmt.Errorf("repository target: %w", err)
	}
	dest, err := sandbox.ValidatePath(e.root(), target)
	if err != nil {
		return err
	}
	if e.Cloner == nil {
		return fmt.Errorf("no cloner configured for %s", url)
	}
	e.log().Infof("Cloning %s into %s", url, target)
	if err := e.Cloner.Clone(ctx, url, dest); err != nil {
		return err
	}
	logging.Success(e.log(), logging.Aligned(target, "Repository cloned."))
	return nil
}

// rollback puts the previous lock record back and returns cause.
func (e *RunEngine) rollback(store *lock.Store, cause error) error {
	if err := store.Restore(); err != nil {
		e.log().WithError(err).Error("Could not restore lock file")
	}
	return cause
}

func (e *RunEngine) runner() shell.Runner {
	if e.Runner == nil {
		return &shell.ExecRunner{Dir: e.root()}
	}
	return e.Runner
}

func (e *RunEngine) prompter() prompt.Prompter {
	if e.Prompter == nil {
		return prompt.Defaults{}
	}
	return e.Prompter
}

func (e *RunEngine) root() string {
	if e.ProjectRoot == "" {
		return "."
	}
	return e.ProjectRoot
}

func (e *RunEngine) lockPath() string {
	return resolveLockPath(e.root(), e.LockPath)
}

func resolveLockPath(root, path string) string {
	if path == "" {
		path = lock.DefaultPath
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func (e *RunEngine) log() logrus.FieldLogger {
	if e.Log == nil {
		return logging.Discard()
	}
	return e.Log
}
