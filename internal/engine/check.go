package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/lock"
	"github.com/brendtumi/feasible/internal/logging"
	"github.com/brendtumi/feasible/internal/sandbox"
)

// CheckEngine compares the project against its lock file without changing
// anything.
type CheckEngine struct {
	ProjectRoot string
	LockPath    string
	Log         logrus.FieldLogger
}

// Check reports whether the configuration changed since the last run and
// which recorded outputs are missing. Clean is true when neither applies.
func (e *CheckEngine) Check(ctx context.Context, loaded *config.Loaded) (*CheckResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root := e.ProjectRoot
	if root == "" {
		root = "."
	}
	log := e.Log
	if log == nil {
		log = logging.Discard()
	}

	store := lock.NewStore(resolveLockPath(root, e.LockPath), lock.Checksum{File: loaded.Source, Hash: loaded.Fingerprint}, log)
	store.Load()

	result := &CheckResult{
		HasLock:       store.HasPrevious,
		ConfigChanged: store.NeedsUpdate(),
	}
	for _, p := range store.CleanupList() {
		state, err := fileState(root, p)
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, FileAction{Path: p, Action: state})
		if state == "missing" {
			result.Missing = append(result.Missing, p)
		}
	}
	result.Clean = !result.ConfigChanged && len(result.Missing) == 0
	return result, nil
}

func fileState(root, path string) (string, error) {
	resolved, err := sandbox.ValidatePath(root, path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "missing", nil
		}
		return "", err
	}
	return "present", nil
}
