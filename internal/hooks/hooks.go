package hooks

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/logging"
	"github.com/brendtumi/feasible/internal/shell"
	"github.com/brendtumi/feasible/internal/transform"
)

// ExecutionError reports a hook command that failed.
type ExecutionError struct {
	Hook    string
	Index   int // 1-based position in the hook's command list
	Command string
	Code    int
	Stderr  string
	Err     error // set when the command could not run at all
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Label(), e.Err)
	}
	msg := fmt.Sprintf("%s: exited with code %d", e.Label(), e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Label identifies the command as action:<hook>#<index>.
func (e *ExecutionError) Label() string {
	return label(e.Hook, e.Index)
}

// ExitCode is the process exit code the CLI should use.
func (e *ExecutionError) ExitCode() int {
	if e.Code > 0 {
		return e.Code
	}
	return 1
}

func label(hook string, index int) string {
	return fmt.Sprintf("action:%s#%d", hook, index)
}

// Executor runs the commands of the configured actions.
type Executor struct {
	Runner    shell.Runner
	Actions   config.Actions
	Selection Selection
	// Parallel launches every command of a hook at once. The first failure
	// cancels the remaining commands.
	Parallel  bool
	Separator string
	Log       logrus.FieldLogger
}

// RunStage runs the hooks of stage if the selection enables it.
func (e *Executor) RunStage(ctx context.Context, stage Stage, hasPrevious bool, vars map[string]any) error {
	if !e.Selection.Enabled(stage, hasPrevious) {
		return nil
	}
	for _, hook := range stage.Hooks() {
		commands := e.Actions[hook]
		if len(commands) == 0 {
			continue
		}
		e.log().WithField("stage", stage).Debugf("Running %d command(s) of %s", len(commands), hook)
		if err := e.Run(ctx, hook, commands, vars); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the commands of one hook with vars substituted in.
func (e *Executor) Run(ctx context.Context, hook string, commands []string, vars map[string]any) error {
	resolved := make([]string, len(commands))
	for i, c := range commands {
		cmd, err := transform.Substitute(c, vars, e.separator())
		if err != nil {
			return &ExecutionError{Hook: hook, Index: i + 1, Command: c, Err: err}
		}
		resolved[i] = cmd
	}

	if e.Parallel && len(resolved) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i, c := range resolved {
			g.Go(func() error {
				return e.exec(gctx, hook, i+1, c)
			})
		}
		return g.Wait()
	}

	for i, c := range resolved {
		if err := e.exec(ctx, hook, i+1, c); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) exec(ctx context.Context, hook string, index int, command string) error {
	log := e.log()
	res, err := e.Runner.Run(ctx, command)
	if err != nil {
		return &ExecutionError{Hook: hook, Index: index, Command: command, Err: err}
	}
	if res.ExitCode != 0 {
		log.Errorf("%s: %s", label(hook, index), strings.TrimSpace(res.Stderr))
		return &ExecutionError{Hook: hook, Index: index, Command: command, Code: res.ExitCode, Stderr: res.Stderr}
	}
	if res.Stderr != "" {
		log.Errorf("%s: %s", label(hook, index), strings.TrimSpace(res.Stderr))
		return nil
	}
	log.Infof("%s: %s", label(hook, index), strings.TrimSpace(res.Stdout))
	return nil
}

func (e *Executor) separator() string {
	if e.Separator == "" {
		return transform.DefaultSeparator
	}
	return e.Separator
}

func (e *Executor) log() logrus.FieldLogger {
	if e.Log == nil {
		return logging.Discard()
	}
	return e.Log
}
