// Package storage persists parameter studies. Arrow IPC files and SQLite
// databases round-trip a study exactly; YAML and CSV are display exports.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/banshee-data/paramstudy/internal/fsutil"
	"github.com/banshee-data/paramstudy/internal/monitoring"
	"github.com/banshee-data/paramstudy/internal/paramstudy"
)

// formatVersion is written into every persisted study.
const formatVersion = "1"

// Metadata keys of a persisted study.
const (
	metaFormatVersion = "paramstudy.format_version"
	metaMethod        = "paramstudy.method"
	metaTemplate      = "paramstudy.set_name_template"
	metaStudyID       = "paramstudy.study_id"
)

// Format selects the file encoding of a study.
type Format string

const (
	FormatArrow  Format = "arrow"
	FormatSQLite Format = "sqlite"
	FormatYAML   Format = "yaml"
	FormatCSV    Format = "csv"
)

// ParseFormat accepts the format names used on the command line.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arrow", "ipc", "feather":
		return FormatArrow, nil
	case "sqlite", "sqlite3", "db":
		return FormatSQLite, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown output file type %q (want arrow, sqlite, yaml or csv)", s)
}

// FormatForPath picks a format from the file extension. Unknown extensions
// use Arrow.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	case ".yaml", ".yml":
		return FormatYAML
	case ".csv":
		return FormatCSV
	}
	return FormatArrow
}

// Loadable reports whether a study written in f can be read back.
func (f Format) Loadable() bool {
	return f == FormatArrow || f == FormatSQLite
}

// Encode serialises a study in the given format.
func Encode(st *paramstudy.Study, f Format) ([]byte, error) {
	switch f {
	case FormatArrow:
		return encodeArrow(st)
	case FormatSQLite:
		return encodeSQLite(st)
	case FormatYAML:
		var buf bytes.Buffer
		err := WriteYAML(&buf, st)
		return buf.Bytes(), err
	case FormatCSV:
		var buf bytes.Buffer
		err := WriteCSV(&buf, st)
		return buf.Bytes(), err
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

// Decode parses a study previously written by Encode. path is only used in
// error messages.
func Decode(path string, data []byte, f Format) (*paramstudy.Study, error) {
	switch f {
	case FormatArrow:
		return decodeArrow(path, data)
	case FormatSQLite:
		return decodeSQLite(path, data)
	}
	return nil, &paramstudy.FileFormatError{Path: path, Reason: fmt.Sprintf("%s files cannot be read back as a study", f)}
}

// Store reads and writes studies through a FileSystem.
type Store struct {
	FS fsutil.FileSystem

	// Format overrides the format inferred from the file extension.
	Format Format

	Logf monitoring.Logf
}

// NewStore returns a Store over fsys that infers formats from extensions.
func NewStore(fsys fsutil.FileSystem, logf monitoring.Logf) *Store {
	return &Store{FS: fsys, Logf: logf}
}

func (s *Store) formatFor(path string) Format {
	if s.Format != "" {
		return s.Format
	}
	return FormatForPath(path)
}

func (s *Store) logf(format string, v ...interface{}) {
	monitoring.OrDiscard(s.Logf)(format, v...)
}

// Load reads a study. Errors for missing files wrap fs.ErrNotExist, so a
// Store can serve as paramstudy.Loader.
func (s *Store) Load(path string) (*paramstudy.Study, error) {
	data, err := s.FS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read study: %w", err)
	}
	return Decode(path, data, s.formatFor(path))
}

// Save writes a study atomically, replacing any existing file.
func (s *Store) Save(st *paramstudy.Study, path string) error {
	data, err := Encode(st, s.formatFor(path))
	if err != nil {
		return fmt.Errorf("failed to encode study: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.FS, path, data, 0o644); err != nil {
		return err
	}
	s.logf("wrote %d parameter sets to %s", st.Len(), path)
	return nil
}

// Write saves a study unless path already holds an equal one, so that build
// systems tracking the file's timestamp are not triggered needlessly. With
// overwrite the file is always written. It reports whether it wrote.
func (s *Store) Write(st *paramstudy.Study, path string, overwrite bool) (bool, error) {
	if !overwrite && s.FS.Exists(path) {
		unchanged, err := s.unchanged(st, path)
		if err != nil {
			return false, err
		}
		if unchanged {
			s.logf("%s is up to date, not rewriting", path)
			return false, nil
		}
	}
	if err := s.Save(st, path); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) unchanged(st *paramstudy.Study, path string) (bool, error) {
	f := s.formatFor(path)
	if f.Loadable() {
		prev, err := s.Load(path)
		var ffe *paramstudy.FileFormatError
		switch {
		case errors.As(err, &ffe):
			s.logf("replacing unreadable study %s: %v", path, err)
			return false, nil
		case errors.Is(err, fs.ErrNotExist):
			return false, nil
		case err != nil:
			return false, err
		}
		return prev.Equal(st) && prev.Method() == st.Method() && prev.SetNameTemplate() == st.SetNameTemplate(), nil
	}

	existing, err := s.FS.ReadFile(path)
	if err != nil {
		return false, nil
	}
	data, err := Encode(st, f)
	if err != nil {
		return false, err
	}
	return bytes.Equal(existing, data), nil
}

func formatError(path, reason string, err error) error {
	return &paramstudy.FileFormatError{Path: path, Reason: reason, Err: err}
}

func (f Format) String() string { return string(f) }
