package storage

import (
	"fmt"

	"github.com/banshee-data/paramstudy/internal/paramstudy"
)

// attributes are the study-level values stored next to the set table.
type attributes struct {
	method   paramstudy.Method
	template paramstudy.SetNameTemplate
	studyID  string
}

// readAttributes validates the stored attributes. A missing template means
// the default one.
func readAttributes(path string, lookup func(key string) (string, bool)) (attributes, error) {
	var a attributes

	version, ok := lookup(metaFormatVersion)
	if !ok {
		return a, formatError(path, "missing "+metaFormatVersion, nil)
	}
	if version != formatVersion {
		return a, formatError(path, fmt.Sprintf("unsupported format version %q", version), nil)
	}

	method, ok := lookup(metaMethod)
	if !ok {
		return a, formatError(path, "missing "+metaMethod, nil)
	}
	m, err := paramstudy.ParseMethod(method)
	if err != nil {
		return a, formatError(path, "invalid sampling method", err)
	}
	a.method = m

	a.template = paramstudy.DefaultSetNameTemplate
	if t, ok := lookup(metaTemplate); ok {
		a.template = paramstudy.SetNameTemplate(t)
	}
	a.studyID, _ = lookup(metaStudyID)
	return a, nil
}

// study assembles and checks the decoded table.
func (a attributes) study(path string, names []string, rows []paramstudy.Row) (*paramstudy.Study, error) {
	st, err := paramstudy.NewStudy(a.method, a.template, names, rows)
	if err != nil {
		return nil, formatError(path, "inconsistent study table", err)
	}
	if a.studyID != "" && a.studyID != st.ID().String() {
		return nil, formatError(path, fmt.Sprintf("stored study id %s does not match its content (%s)", a.studyID, st.ID()), nil)
	}
	return st, nil
}
