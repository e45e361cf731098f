package paramstudy

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ParameterSummary describes one parameter column of a study. The numeric
// fields are zero for string and bool columns.
type ParameterSummary struct {
	Name     string
	Kind     Kind
	Count    int
	Distinct int
	Min      float64
	Max      float64
	Mean     float64
	StdDev   float64
}

// Describe summarises every parameter column in declared order. StdDev is
// the sample standard deviation, zero for a single set.
func Describe(st *Study) []ParameterSummary {
	out := make([]ParameterSummary, 0, len(st.names))
	for c, name := range st.names {
		sum := ParameterSummary{Name: name, Kind: st.kinds[c], Count: st.Len()}

		distinct := make(map[string]bool, st.Len())
		for _, r := range st.rows {
			distinct[r.Set[name].Canonical()] = true
		}
		sum.Distinct = len(distinct)

		if sum.Kind.IsNumeric() && st.Len() > 0 {
			xs := NumericColumn(st, name)
			sum.Min = floats.Min(xs)
			sum.Max = floats.Max(xs)
			if len(xs) > 1 {
				sum.Mean, sum.StdDev = stat.MeanStdDev(xs, nil)
			} else {
				sum.Mean = xs[0]
			}
		}
		out = append(out, sum)
	}
	return out
}

// NumericColumn returns a numeric parameter column as float64 values in row
// order. It returns nil for unknown or non-numeric columns.
func NumericColumn(st *Study, name string) []float64 {
	k, ok := st.ColumnKind(name)
	if !ok || !k.IsNumeric() {
		return nil
	}
	xs := make([]float64, len(st.rows))
	for i, r := range st.rows {
		xs[i] = r.Set[name].Float64()
	}
	return xs
}
