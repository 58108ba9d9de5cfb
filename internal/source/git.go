package source

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitCloner clones repositories with the git executable.
type GitCloner struct {
	// Dir is the directory relative targets are resolved against.
	Dir string
}

// Clone makes a shallow clone of url into target. A "#ref" suffix on url
// selects the branch or tag.
func (g *GitCloner) Clone(ctx context.Context, url, target string) error {
	repo, ref := SplitRef(url)
	if repo == "" {
		return &CloneError{URL: url, Target: target, Err: fmt.Errorf("repository url is empty")}
	}

	dest := target
	if g.Dir != "" && !filepath.IsAbs(dest) {
		dest = filepath.Join(g.Dir, dest)
	}

	args := []string{"clone", "--depth", "1"}
	if ref != "" {
		args = append(args, "--branch", ref, "--single-branch")
	}
	args = append(args, repo, dest)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if output, err := cmd.CombinedOutput(); err != nil {
		return &CloneError{URL: url, Target: target, Err: err, Output: strings.TrimSpace(string(output))}
	}
	return nil
}

// SplitRef separates a trailing "#ref" from a repository url.
func SplitRef(url string) (repo, ref string) {
	if i := strings.LastIndex(url, "#"); i >= 0 {
		return url[:i], url[i+1:]
	}
	return url, ""
}
