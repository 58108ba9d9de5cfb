package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/brendtumi/feasible/internal/logging"
)

// PersistenceError reports a lock file that could not be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persisting lock file %s: %s", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store holds the previous record read from disk and the record being built
// by the current run.
type Store struct {
	Path        string
	Current     Record
	Previous    Record
	HasPrevious bool
	Log         logrus.FieldLogger
}

// NewStore prepares a store for the configuration identified by checksum.
// The checksum version is stamped with Version.
func NewStore(path string, checksum Checksum, log logrus.FieldLogger) *Store {
	if path == "" {
		path = DefaultPath
	}
	if log == nil {
		log = logging.Discard()
	}
	checksum.Version = Version
	return &Store{
		Path: path,
		Current: Record{
			Checksum:  checksum,
			Variables: map[string]any{},
			Files:     []string{},
		},
		Previous: Record{Variables: map[string]any{}},
		Log:      log,
	}
}

// Load reads the previous record. A missing or unreadable lock file leaves
// the store without a previous record; Load never fails.
func (s *Store) Load() {
	if _, err := os.Stat(s.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.Log.Infof("%s is not found but will be created.", s.Path)
		} else {
			s.Log.WithError(err).Warn("Lock file is not accessible, ignoring it")
		}
		return
	}
	rec, err := Load(s.Path)
	if err != nil {
		s.Log.WithError(err).Warn("Lock file is not readable, ignoring it")
		return
	}
	s.Previous = *rec
	s.HasPrevious = true
}

// NeedsUpdate reports whether the configuration changed since the previous
// run, or there was no previous run.
func (s *Store) NeedsUpdate() bool {
	prev, cur := s.Previous.Checksum, s.Current.Checksum
	return !s.HasPrevious ||
		prev.Version == 0 ||
		prev.Version != cur.Version ||
		prev.Hash != cur.Hash ||
		prev.File != cur.File
}

// Value resolves a variable from the current answers, then the previous
// record, then initial. When options is non-empty and the resolved value is
// one of them, its index is returned instead.
func (s *Store) Value(name string, initial any, options []string) any {
	v, ok := s.Current.Variables[name]
	if !ok {
		v, ok = s.Previous.Variables[name]
	}
	if !ok {
		v = initial
	}
	if str, isString := v.(string); isString {
		for i, opt := range options {
			if opt == str {
				return i
			}
		}
	}
	return v
}

// PreviousVariables returns a copy of the previously recorded variables.
func (s *Store) PreviousVariables() map[string]any {
	return maps.Clone(s.Previous.Variables)
}

// CleanupList returns the files recorded by the previous run.
func (s *Store) CleanupList() []string {
	return s.Previous.Files
}

// SetVariables replaces the current variables.
func (s *Store) SetVariables(vars map[string]any) {
	s.Current.Variables = vars
}

// SetFiles replaces the current file list.
func (s *Store) SetFiles(files []string) {
	s.Current.Files = files
}

// Save writes the current record to the lock path.
func (s *Store) Save() error {
	s.Current.Checksum.Version = Version
	if err := Save(s.Path, &s.Current); err != nil {
		return &PersistenceError{Path: s.Path, Err: err}
	}
	logging.Success(s.Log, "Lock file updated!")
	return nil
}

// BackupPath returns the path of the backup sibling.
func (s *Store) BackupPath() string {
	return s.Path + BackupSuffix
}

// Backup writes the current record to the backup sibling.
func (s *Store) Backup() error {
	if err := Save(s.BackupPath(), &s.Current); err != nil {
		return &PersistenceError{Path: s.BackupPath(), Err: err}
	}
	s.Log.Info("Lock file backup saved.")
	return nil
}

// Restore backs up the current record and then puts the previous record
// back in place. Without a previous record the lock file is removed.
func (s *Store) Restore() error {
	if err := s.Backup(); err != nil {
		return err
	}
	if !s.HasPrevious {
		if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &PersistenceError{Path: s.Path, Err: err}
		}
		logging.Success(s.Log, "Lock file restored!")
		return nil
	}
	if err := Save(s.Path, &s.Previous); err != nil {
		return &PersistenceError{Path: s.Path, Err: err}
	}
	logging.Success(s.Log, "Lock file restored!")
	return nil
}

// RemoveBackup deletes the backup sibling if present.
func (s *Store) RemoveBackup() error {
	if err := os.Remove(s.BackupPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
