package engine

import (
	"maps"
	"slices"

	"github.com/brendtumi/feasible/internal/config"
	"github.com/brendtumi/feasible/internal/lock"
	"github.com/brendtumi/feasible/internal/logging"
)

// InfoResult holds tool information for the info command.
type InfoResult struct {
	Version      string
	ConfigSource string
	Fingerprint  string
	LockPath     string
	LockVersion  int
	HasLock      bool
	Variables    []string
	Defaults     []string
	Hooks        []string
	Files        []string
	Recorded     []string
}

// Info gathers information about the configuration and its lock file.
// loaded may be nil when no configuration was found.
func Info(version string, loaded *config.Loaded, projectRoot, lockPath string) *InfoResult {
	if projectRoot == "" {
		projectRoot = "."
	}
	r := &InfoResult{
		Version:     version,
		LockPath:    resolveLockPath(projectRoot, lockPath),
		LockVersion: lock.Version,
	}

	var checksum lock.Checksum
	if loaded != nil {
		cfg := loaded.Config
		r.ConfigSource = loaded.Source
		r.Fingerprint = loaded.Fingerprint
		r.Variables = cfg.Variables.Names()
		for _, d := range cfg.Defaults {
			r.Defaults = append(r.Defaults, d.Name)
		}
		r.Hooks = slices.Sorted(maps.Keys(cfg.Actions))
		for _, f := range cfg.Files {
			r.Files = append(r.Files, f.Path)
		}
		checksum = lock.Checksum{File: loaded.Source, Hash: loaded.Fingerprint}
	}

	store := lock.NewStore(r.LockPath, checksum, logging.Discard())
	store.Load()
	r.HasLock = store.HasPrevious
	r.Recorded = store.CleanupList()
	return r
}
