package config

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPattern matches the configuration file names looked up in the
// working directory.
const DefaultPattern = "feasible.{json,json5,yml,yaml}"

// Discover returns the first file matching pattern, in lexicographic order.
// Brace alternatives and ** are supported.
func Discover(pattern string) (string, error) {
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return "", fmt.Errorf("invalid config pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", &NotFoundError{Pattern: pattern}
	}
	sort.Strings(matches)
	return matches[0], nil
}
