// Package shell runs configuration-supplied commands through the system shell.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Runner executes one shell command.
type Runner interface {
	Run(ctx context.Context, command string) (*Result, error)
}

// Result is the captured outcome of a command. A non-zero exit code is
// reported here, not as an error.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// ExecRunner runs commands as `<Shell> -c <command>`.
type ExecRunner struct {
	Shell   string        // defaults to "sh"
	Dir     string        // working directory (empty = current)
	Env     []string      // extra KEY=VALUE pairs appended to the environment
	Timeout time.Duration // per-command timeout (0 = none)
}

// Run executes command and waits for it. The error is non-nil only when the
// command could not be started or was cancelled.
func (r *ExecRunner) Run(ctx context.Context, command string) (*Result, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	sh := r.Shell
	if sh == "" {
		sh = "sh"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, sh, "-c", command)
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	err := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("running %q: %w", command, ctxErr)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("running %q: %w", command, err)
}
