package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/brendtumi/feasible/internal/sandbox"
)

// Cleanup removes the outputs recorded by the previous run. Paths that
// resolve outside projectRoot are skipped with a warning; a missing file is
// not an error.
func Cleanup(projectRoot string, paths []string, log logrus.FieldLogger) []FileAction {
	var removed []FileAction
	log.Debugf("Clean up list: %v", paths)
	for _, p := range paths {
		if err := sandbox.SafeRemove(projectRoot, p); err != nil {
			log.WithError(err).Warnf("Could not remove %s", p)
			continue
		}
		removed = append(removed, FileAction{Path: p, Action: "removed"})
	}
	return removed
}
