package paramstudy

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/banshee-data/paramstudy/internal/monitoring"
)

// Loader reads a persisted study. The storage package provides the
// implementation; errors for missing files must wrap fs.ErrNotExist.
type Loader interface {
	Load(path string) (*Study, error)
}

// Options configure study construction.
type Options struct {
	// SetNameTemplate formats set names. Defaults to DefaultSetNameTemplate.
	SetNameTemplate SetNameTemplate

	// PreviousStudy is the path of a persisted study to merge against.
	// Empty means start fresh at index 0.
	PreviousStudy string

	// RequirePrevious turns a missing PreviousStudy file into an error
	// instead of a fresh start.
	RequirePrevious bool

	// RequireUnique rejects duplicate parameter sets instead of collapsing
	// them onto their first occurrence.
	RequireUnique bool

	// Loader reads PreviousStudy.
	Loader Loader

	// Logf receives diagnostics. Nil discards them.
	Logf monitoring.Logf
}

func (o Options) template() SetNameTemplate {
	if o.SetNameTemplate == "" {
		return DefaultSetNameTemplate
	}
	return o.SetNameTemplate
}

// Generate validates the schema, loads the previous study if one is
// configured, expands the schema with its sampling strategy and builds the
// study. Validation errors are returned before any sampling or I/O.
func Generate(schema *Schema, opts Options) (*Study, error) {
	logf := monitoring.OrDiscard(opts.Logf)
	gen, err := GeneratorFor(schema.Method, logf)
	if err != nil {
		return nil, &SchemaError{Constraint: err.Error()}
	}
	if err := gen.Validate(schema); err != nil {
		return nil, err
	}
	if err := opts.template().Validate(); err != nil {
		return nil, err
	}

	previous, err := opts.loadPrevious(logf)
	if err != nil {
		return nil, err
	}

	sets, err := gen.Generate(schema)
	if err != nil {
		return nil, err
	}
	return Build(gen.Method(), schema.ParameterNames(), sets, previous, opts)
}

func (o Options) loadPrevious(logf monitoring.Logf) (*Study, error) {
	if o.PreviousStudy == "" {
		return nil, nil
	}
	if o.Loader == nil {
		return nil, fmt.Errorf("previous study %s given but no loader configured", o.PreviousStudy)
	}
	prev, err := o.Loader.Load(o.PreviousStudy)
	if errors.Is(err, fs.ErrNotExist) && !o.RequirePrevious {
		logf("previous study %s does not exist, starting at index 0", o.PreviousStudy)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading previous study: %w", err)
	}
	return prev, nil
}

// Build hashes the incoming sets and names them. Without a previous study
// sets are named from index 0 in generation order. With one, sets whose hash
// already exists keep their previous name, new sets get indices above the
// previous maximum in order of first appearance, and previous sets absent
// from the incoming list are dropped.
func Build(method Method, names []string, sets []ParameterSet, previous *Study, opts Options) (*Study, error) {
	logf := monitoring.OrDiscard(opts.Logf)
	template := opts.template()
	if err := template.Validate(); err != nil {
		return nil, err
	}

	sets, kinds, err := normalizeColumns(names, sets)
	if err != nil {
		return nil, err
	}

	type incoming struct {
		hash string
		set  ParameterSet
	}
	unique := make([]incoming, 0, len(sets))
	firstSeen := make(map[string]int, len(sets))
	for i, set := range sets {
		h := ComputeHash(set)
		if j, dup := firstSeen[h]; dup {
			if !sets[j].Equivalent(set) {
				return nil, &HashCollisionError{Hash: h}
			}
			if opts.RequireUnique {
				return nil, &SchemaError{Constraint: fmt.Sprintf("parameter sets %d and %d are duplicates", j, i)}
			}
			logf("dropping parameter set %d: duplicate of set %d", i, j)
			continue
		}
		firstSeen[h] = i
		unique = append(unique, incoming{hash: h, set: set})
	}

	st := &Study{
		method:   method,
		template: template,
		names:    append([]string(nil), names...),
		kinds:    kinds,
		rows:     make([]Row, 0, len(unique)),
	}

	next := 0
	if previous != nil {
		if previous.template != template {
			logf("previous study uses set name template %q, new sets use %q", string(previous.template), string(template))
		}
		for _, r := range previous.rows {
			if r.Index >= next {
				next = r.Index + 1
			}
		}
	}

	reused := 0
	for _, in := range unique {
		if previous != nil {
			if prev, ok := previous.LookupHash(in.hash); ok {
				if !prev.Set.Equivalent(in.set) {
					return nil, &HashCollisionError{Hash: in.hash, SetName: prev.Name}
				}
				st.rows = append(st.rows, Row{Name: prev.Name, Hash: in.hash, Index: prev.Index, Set: in.set})
				reused++
				continue
			}
		}
		st.rows = append(st.rows, Row{Name: template.Format(next), Hash: in.hash, Index: next, Set: in.set})
		next++
	}

	if previous != nil {
		if dropped := previous.Len() - reused; dropped > 0 {
			logf("dropping %d previous parameter sets absent from the current schema", dropped)
		}
		logf("merged with previous study: %d sets kept, %d new", reused, len(st.rows)-reused)
	}

	sort.SliceStable(st.rows, func(a, b int) bool { return st.rows[a].Index < st.rows[b].Index })
	if err := st.index(); err != nil {
		return nil, err
	}
	return st, nil
}

// normalizeColumns copies the sets, promoting int values to float in
// columns that mix the two, and returns the resulting column kinds.
func normalizeColumns(names []string, sets []ParameterSet) ([]ParameterSet, []Kind, error) {
	out := make([]ParameterSet, len(sets))
	for i, s := range sets {
		out[i] = s.Clone()
	}
	column := make([]Value, len(out))
	for _, name := range names {
		for r, set := range out {
			column[r] = set[name]
		}
		k, err := columnKind(column)
		if err != nil {
			// checkColumns below reports missing parameters precisely.
			if _, cerr := checkColumns(names, out); cerr != nil {
				return nil, nil, &SchemaError{Constraint: cerr.Error()}
			}
			return nil, nil, schemaErrorf(name, "%v", err)
		}
		for _, set := range out {
			set[name] = convertTo(set[name], k)
		}
	}
	kinds, err := checkColumns(names, out)
	if err != nil {
		return nil, nil, &SchemaError{Constraint: err.Error()}
	}
	return out, kinds, nil
}
