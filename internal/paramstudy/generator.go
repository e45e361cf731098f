package paramstudy

import (
	"fmt"
	"math/rand/v2"

	"github.com/banshee-data/paramstudy/internal/monitoring"
)

// Generator expands a validated schema into concrete parameter sets.
// The implementations are CartesianProduct, LatinHypercube, SobolSequence
// and CustomStudy.
type Generator interface {
	Method() Method
	Validate(s *Schema) error
	Generate(s *Schema) ([]ParameterSet, error)
}

// GeneratorFor returns the strategy for m. A nil logf discards diagnostics.
func GeneratorFor(m Method, logf monitoring.Logf) (Generator, error) {
	logf = monitoring.OrDiscard(logf)
	switch m {
	case MethodCartesianProduct:
		return CartesianProduct{}, nil
	case MethodLatinHypercube:
		return LatinHypercube{Logf: logf}, nil
	case MethodSobolSequence:
		return SobolSequence{Logf: logf}, nil
	case MethodCustomStudy:
		return CustomStudy{}, nil
	case "":
		return nil, fmt.Errorf("sampling method is not set")
	}
	return nil, fmt.Errorf("unknown sampling method %q", m)
}

// newSource builds the random source for a sampling run. Without a seed a
// fresh one is drawn and logged so the study can be reproduced later.
func newSource(seed *uint64, method Method, logf monitoring.Logf) (*rand.PCG, uint64) {
	var s uint64
	if seed != nil {
		s = *seed
	} else {
		s = rand.Uint64()
		logf("%s: no seed given, sampling with seed %d", method, s)
	}
	return rand.NewPCG(s, s^0x9e3779b97f4a7c15), s
}

// unitSamplesToSets maps rows of unit-interval samples (one column per
// parameter) through each parameter's inverse CDF.
func unitSamplesToSets(s *Schema, row func(i int) []float64, n int) []ParameterSet {
	quantiles := make([]func(float64) float64, len(s.Parameters))
	for j, p := range s.Parameters {
		quantiles[j] = p.Distribution.quantile()
	}
	sets := make([]ParameterSet, n)
	for i := range sets {
		u := row(i)
		set := make(ParameterSet, len(s.Parameters))
		for j, p := range s.Parameters {
			set[p.Name] = Float(quantiles[j](u[j]))
		}
		sets[i] = set
	}
	return sets
}

// warnFixedParameters logs every parameter whose bounds collapse to a single
// value. When all of them do, the samples collapse to one parameter set.
func warnFixedParameters(s *Schema, method Method, n int, logf monitoring.Logf) {
	fixed := 0
	for _, p := range s.Parameters {
		if d := p.Distribution; d != nil && len(d.Bounds) == 2 && d.Bounds[0] == d.Bounds[1] {
			logf("%s: parameter %q has lower == upper, every sample takes %g", method, p.Name, d.Bounds[0])
			fixed++
		}
	}
	if fixed == len(s.Parameters) && n > 1 {
		logf("%s: every parameter is fixed, the %d samples collapse to one parameter set", method, n)
	}
}
