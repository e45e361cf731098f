// Package paramstudy turns a declarative parameter schema into a uniquely
// identified, content-addressed collection of parameter sets. Sets are named
// from a template (parameter_set0, parameter_set1, ...) and keyed by a hash
// of their content, so a study regenerated from an extended schema keeps the
// names of the sets it already had.
package paramstudy

import (
	"fmt"
	"iter"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ParameterSet is one concrete assignment of values to parameter names.
type ParameterSet map[string]Value

// Equal reports whether both sets hold the same names and values.
func (p ParameterSet) Equal(o ParameterSet) bool {
	if len(p) != len(o) {
		return false
	}
	for name, v := range p {
		ov, ok := o[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Equivalent reports whether both sets hold the same names with pairwise
// equivalent values, i.e. whether they must share a set hash.
func (p ParameterSet) Equivalent(o ParameterSet) bool {
	if len(p) != len(o) {
		return false
	}
	for name, v := range p {
		ov, ok := o[name]
		if !ok || !v.Equivalent(ov) {
			return false
		}
	}
	return true
}

// Clone returns a copy of the set.
func (p ParameterSet) Clone() ParameterSet {
	c := make(ParameterSet, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Row is one named, hashed parameter set of a study.
type Row struct {
	Name  string
	Hash  string
	Index int
	Set   ParameterSet
}

// Study is an immutable table of parameter sets: one row per set, one column
// per parameter, plus the set_name and set_hash columns. Rows are ordered by
// set index.
type Study struct {
	method   Method
	template SetNameTemplate
	names    []string
	kinds    []Kind
	rows     []Row
	byName   map[string]int
	byHash   map[string]int
}

// NewStudy assembles a study from already named rows, as read back from a
// persisted file. It checks every invariant of the table: each row holds
// exactly the given parameters with one kind per column, names follow the
// template, and names and hashes are unique and consistent with content.
func NewStudy(method Method, template SetNameTemplate, names []string, rows []Row) (*Study, error) {
	if err := template.Validate(); err != nil {
		return nil, err
	}
	kinds, err := checkColumns(names, setsOf(rows))
	if err != nil {
		return nil, err
	}

	st := &Study{
		method:   method,
		template: template,
		names:    append([]string(nil), names...),
		kinds:    kinds,
		rows:     make([]Row, len(rows)),
		byName:   make(map[string]int, len(rows)),
		byHash:   make(map[string]int, len(rows)),
	}
	for i, r := range rows {
		idx, ok := template.Parse(r.Name)
		if !ok {
			return nil, fmt.Errorf("set name %q does not match template %q", r.Name, string(template))
		}
		if want := ComputeHash(r.Set); r.Hash != want {
			return nil, fmt.Errorf("%s: stored set hash %s does not match content hash %s", r.Name, r.Hash, want)
		}
		st.rows[i] = Row{Name: r.Name, Hash: r.Hash, Index: idx, Set: r.Set.Clone()}
	}
	sort.SliceStable(st.rows, func(a, b int) bool { return st.rows[a].Index < st.rows[b].Index })
	if err := st.index(); err != nil {
		return nil, err
	}
	return st, nil
}

// index builds the lookup maps and enforces unique names and hashes.
func (st *Study) index() error {
	st.byName = make(map[string]int, len(st.rows))
	st.byHash = make(map[string]int, len(st.rows))
	for i, r := range st.rows {
		if _, dup := st.byName[r.Name]; dup {
			return fmt.Errorf("duplicate set name %s", r.Name)
		}
		if j, dup := st.byHash[r.Hash]; dup {
			if st.rows[j].Set.Equivalent(r.Set) {
				return fmt.Errorf("sets %s and %s are duplicates", st.rows[j].Name, r.Name)
			}
			return &HashCollisionError{Hash: r.Hash, SetName: r.Name}
		}
		st.byName[r.Name] = i
		st.byHash[r.Hash] = i
	}
	return nil
}

func setsOf(rows []Row) []ParameterSet {
	sets := make([]ParameterSet, len(rows))
	for i, r := range rows {
		sets[i] = r.Set
	}
	return sets
}

// checkColumns verifies every set holds exactly names and returns the kind
// of each column. It does not promote; callers normalise first.
func checkColumns(names []string, sets []ParameterSet) ([]Kind, error) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || name == SetNameColumn || name == SetHashColumn || seen[name] {
			return nil, fmt.Errorf("invalid or duplicate parameter name %q", name)
		}
		seen[name] = true
	}
	kinds := make([]Kind, len(names))
	column := make([]Value, len(sets))
	for c, name := range names {
		for r, set := range sets {
			if len(set) != len(names) {
				return nil, fmt.Errorf("parameter set %d has %d parameters, expected %d", r, len(set), len(names))
			}
			v, ok := set[name]
			if !ok {
				return nil, fmt.Errorf("parameter set %d is missing parameter %q", r, name)
			}
			column[r] = v
		}
		k, err := columnKind(column)
		if err != nil {
			return nil, fmt.Errorf("parameter %q %v", name, err)
		}
		for _, v := range column {
			if v.Kind() != k {
				return nil, fmt.Errorf("parameter %q mixes %s and %s values", name, k, v.Kind())
			}
		}
		kinds[c] = k
	}
	return kinds, nil
}

// Method returns the strategy that generated the study.
func (st *Study) Method() Method { return st.method }

// SetNameTemplate returns the template set names were formatted with.
func (st *Study) SetNameTemplate() SetNameTemplate { return st.template }

// Len returns the number of parameter sets.
func (st *Study) Len() int { return len(st.rows) }

// ParameterNames returns the parameter columns in declared order.
func (st *Study) ParameterNames() []string {
	return append([]string(nil), st.names...)
}

// ColumnKind returns the value kind of a parameter column.
func (st *Study) ColumnKind(name string) (Kind, bool) {
	for i, n := range st.names {
		if n == name {
			return st.kinds[i], true
		}
	}
	return KindInvalid, false
}

// Row returns the i-th row. The returned set must not be modified.
func (st *Study) Row(i int) Row { return st.rows[i] }

// Rows returns a copy of all rows in set index order.
func (st *Study) Rows() []Row {
	out := make([]Row, len(st.rows))
	for i, r := range st.rows {
		out[i] = Row{Name: r.Name, Hash: r.Hash, Index: r.Index, Set: r.Set.Clone()}
	}
	return out
}

// Lookup returns the parameter set stored under a set name.
func (st *Study) Lookup(setName string) (ParameterSet, bool) {
	i, ok := st.byName[setName]
	if !ok {
		return nil, false
	}
	return st.rows[i].Set.Clone(), true
}

// LookupHash returns the row holding the given set hash.
func (st *Study) LookupHash(hash string) (Row, bool) {
	i, ok := st.byHash[hash]
	if !ok {
		return Row{}, false
	}
	return st.rows[i], true
}

// Sets yields (set_name, parameters) pairs in set index order. This is the
// form consumed by a build orchestrator to parameterise per-set tasks.
func (st *Study) Sets() iter.Seq2[string, ParameterSet] {
	return func(yield func(string, ParameterSet) bool) {
		for _, r := range st.rows {
			if !yield(r.Name, r.Set.Clone()) {
				return
			}
		}
	}
}

// ToMap returns set_name -> parameter name -> plain Go value.
func (st *Study) ToMap() map[string]map[string]any {
	out := make(map[string]map[string]any, len(st.rows))
	for _, r := range st.rows {
		m := make(map[string]any, len(r.Set))
		for name, v := range r.Set {
			m[name] = v.Any()
		}
		out[r.Name] = m
	}
	return out
}

// Equal reports structural equality of the (set_name, set_hash, parameter
// set) tables, including parameter column order.
func (st *Study) Equal(o *Study) bool {
	if st == nil || o == nil {
		return st == o
	}
	if len(st.names) != len(o.names) || len(st.rows) != len(o.rows) {
		return false
	}
	for i := range st.names {
		if st.names[i] != o.names[i] || st.kinds[i] != o.kinds[i] {
			return false
		}
	}
	for i := range st.rows {
		a, b := st.rows[i], o.rows[i]
		if a.Name != b.Name || a.Hash != b.Hash || !a.Set.Equal(b.Set) {
			return false
		}
	}
	return true
}

// ID returns a deterministic identifier of the study's content: a name-based
// UUID over the ordered (set_name, set_hash) pairs.
func (st *Study) ID() uuid.UUID {
	var b strings.Builder
	for _, r := range st.rows {
		b.WriteString(r.Name)
		b.WriteByte(':')
		b.WriteString(r.Hash)
		b.WriteByte('\n')
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.String()))
}
