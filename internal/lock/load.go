package lock

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a lock file.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile %s: %w", path, err)
	}

	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing lockfile %s: %w", path, err)
	}

	if errs := Validate(&rec); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &rec, nil
}

// Save writes a lock record atomically using a temp file and rename.
func Save(path string, rec *Record) error {
	out := *rec
	if out.Variables == nil {
		out.Variables = map[string]any{}
	}
	if out.Files == nil {
		out.Files = []string{}
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("marshaling lockfile: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp lockfile %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp lockfile to %s: %w", path, err)
	}

	return nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lockfile validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Record for well-formedness. Records of other schema
// versions are valid; they only force an update.
// Returns a list of validation error messages (empty if valid).
func Validate(rec *Record) []string {
	var errs []string

	if rec.Checksum.File == "" {
		errs = append(errs, "checksum: 'file' is required")
	}
	if rec.Checksum.Hash == "" {
		errs = append(errs, "checksum: 'hash' is required")
	}
	if rec.Checksum.Version <= 0 {
		errs = append(errs, fmt.Sprintf("checksum: invalid version %d", rec.Checksum.Version))
	}
	if rec.Variables == nil {
		errs = append(errs, "'variables' is required")
	}
	if rec.Files == nil {
		errs = append(errs, "'files' is required")
	}
	for i, f := range rec.Files {
		if f == "" {
			errs = append(errs, fmt.Sprintf("files[%d]: empty path", i))
		}
	}

	return errs
}
