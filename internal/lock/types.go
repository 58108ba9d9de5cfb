// Package lock persists the outcome of a run so later runs can detect drift
// and replay previous answers.
package lock

// Version is the lock record schema version written by this build.
const Version = 2

// DefaultPath is the lock file used when none is configured.
const DefaultPath = "feasible.lock"

// BackupSuffix is appended to the lock path for the backup sibling.
const BackupSuffix = ".backup"

// Record is the persisted state of one run.
type Record struct {
	Checksum  Checksum       `yaml:"checksum"`
	Variables map[string]any `yaml:"variables"`
	Files     []string       `yaml:"files"`
}

// Checksum identifies the configuration a record was produced from.
type Checksum struct {
	// File is the configuration path or URL.
	File string `yaml:"file"`
	// Hash is the configuration fingerprint.
	Hash    string `yaml:"hash"`
	Version int    `yaml:"version"`
}
