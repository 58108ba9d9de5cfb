package feasible

import (
	"github.com/brendtumi/feasible/internal/engine"
	"github.com/brendtumi/feasible/internal/prompt"
	"github.com/brendtumi/feasible/internal/shell"
)

// Type aliases re-export engine result types and collaborator interfaces as
// the public API.

type FileAction = engine.FileAction
type RunResult = engine.RunResult
type CheckResult = engine.CheckResult
type Cloner = engine.Cloner

type Prompter = prompt.Prompter
type Question = prompt.Question

type CommandRunner = shell.Runner
type CommandResult = shell.Result
