package storage

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/paramstudy/internal/fsutil"
	"github.com/banshee-data/paramstudy/internal/paramstudy"
	"github.com/banshee-data/paramstudy/internal/security"
)

// Placeholders of a per-set file name template.
const (
	SetNamePlaceholder = "@set_name"

	// MetaFileName lists the per-set files of the last export.
	MetaFileName = "parameter_study_meta.txt"
)

// SetFileName expands a per-set file name template for one row. The
// template must contain @number or @set_name.
func SetFileName(template string, r paramstudy.Row) (string, error) {
	hasNumber := strings.Contains(template, paramstudy.NumberPlaceholder)
	hasName := strings.Contains(template, SetNamePlaceholder)
	if !hasNumber && !hasName {
		return "", fmt.Errorf("output file template %q must contain %s or %s", template, paramstudy.NumberPlaceholder, SetNamePlaceholder)
	}
	name := strings.ReplaceAll(template, SetNamePlaceholder, r.Name)
	return strings.ReplaceAll(name, paramstudy.NumberPlaceholder, strconv.Itoa(r.Index)), nil
}

// SetFilesResult reports a per-set export.
type SetFilesResult struct {
	// Files holds every per-set file path in set order.
	Files []string

	// Written counts the files whose content changed.
	Written int
}

// WriteSetFiles writes one YAML parameter file per set into dir, named from
// template. Files whose content is unchanged are left alone so downstream
// tasks only rebuild for sets that changed. With meta, MetaFileName in dir
// lists the files.
func (s *Store) WriteSetFiles(st *paramstudy.Study, template, dir string, meta bool) (SetFilesResult, error) {
	var res SetFilesResult
	names := st.ParameterNames()
	seen := make(map[string]string, st.Len())

	for _, r := range st.Rows() {
		base, err := SetFileName(template, r)
		if err != nil {
			return res, err
		}
		if err := security.ValidateFileName(base); err != nil {
			return res, fmt.Errorf("%s: %w", r.Name, err)
		}
		path := filepath.Join(dir, base)
		if err := security.ValidatePathWithinDirectory(path, dir); err != nil {
			return res, fmt.Errorf("%s: %w", r.Name, err)
		}
		if other, dup := seen[path]; dup {
			return res, fmt.Errorf("sets %s and %s map to the same file %s", other, r.Name, path)
		}
		seen[path] = r.Name

		var buf bytes.Buffer
		if err := encodeYAML(&buf, setNode(names, r.Set)); err != nil {
			return res, fmt.Errorf("failed to encode %s: %w", r.Name, err)
		}
		wrote, err := s.writeIfChanged(path, buf.Bytes())
		if err != nil {
			return res, err
		}
		if wrote {
			res.Written++
		}
		res.Files = append(res.Files, path)
	}

	if meta {
		var buf bytes.Buffer
		for _, f := range res.Files {
			buf.WriteString(f)
			buf.WriteByte('\n')
		}
		if _, err := s.writeIfChanged(filepath.Join(dir, MetaFileName), buf.Bytes()); err != nil {
			return res, err
		}
	}
	s.logf("wrote %d of %d parameter set files to %s", res.Written, len(res.Files), dir)
	return res, nil
}

func (s *Store) writeIfChanged(path string, data []byte) (bool, error) {
	if existing, err := s.FS.ReadFile(path); err == nil && bytes.Equal(existing, data) {
		return false, nil
	}
	if err := fsutil.WriteFileAtomic(s.FS, path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
