package paramstudy

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution names.
const (
	DistUniform    = "uniform"
	DistNormal     = "normal"
	DistLogNormal  = "lognormal"
	DistTriangular = "triangular"
)

// unboundedEpsilon keeps unit samples off 0 and 1 for distributions whose
// quantile diverges there.
const unboundedEpsilon = 1e-10

// canonicalDistribution maps accepted spellings onto a distribution name.
// The method names lhs and sobol mean a uniform draw over the bounds.
func canonicalDistribution(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "uniform", "lhs", "latin_hypercube", "sobol", "sobol_sequence":
		return DistUniform, true
	case "normal", "norm", "gaussian":
		return DistNormal, true
	case "lognormal", "lognorm":
		return DistLogNormal, true
	case "triangular", "triang", "triangle":
		return DistTriangular, true
	}
	return "", false
}

// methodHint returns the sampling method implied by a distribution name, if any.
func methodHint(name string) (Method, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "lhs", "latin_hypercube":
		return MethodLatinHypercube, true
	case "sobol", "sobol_sequence":
		return MethodSobolSequence, true
	}
	return "", false
}

func (d *Distribution) validate(param string) error {
	name, ok := canonicalDistribution(d.Name)
	if !ok {
		return schemaErrorf(param, "unknown distribution %q", d.Name)
	}
	if d.NumSamples < 0 {
		return schemaErrorf(param, "num_samples must be a positive integer, got %d", d.NumSamples)
	}
	switch name {
	case DistUniform:
		return d.validateBounds(param)
	case DistTriangular:
		if err := d.validateBounds(param); err != nil {
			return err
		}
		if d.Mode == nil {
			return schemaErrorf(param, "triangular distribution requires mode")
		}
		if *d.Mode < d.Bounds[0] || *d.Mode > d.Bounds[1] {
			return schemaErrorf(param, "mode %g must lie within bounds [%g, %g]", *d.Mode, d.Bounds[0], d.Bounds[1])
		}
		if d.Bounds[0] == d.Bounds[1] {
			return schemaErrorf(param, "triangular distribution requires lower < upper")
		}
	case DistNormal, DistLogNormal:
		if d.Loc == nil || d.Scale == nil {
			return schemaErrorf(param, "%s distribution requires loc and scale", name)
		}
		if math.IsNaN(*d.Loc) || math.IsInf(*d.Loc, 0) {
			return schemaErrorf(param, "loc must be finite")
		}
		if !(*d.Scale > 0) || math.IsInf(*d.Scale, 0) {
			return schemaErrorf(param, "scale must be a positive finite number, got %g", *d.Scale)
		}
	}
	return nil
}

func (d *Distribution) validateBounds(param string) error {
	if len(d.Bounds) != 2 {
		return schemaErrorf(param, "bounds must be [lower, upper], got %d values", len(d.Bounds))
	}
	lo, hi := d.Bounds[0], d.Bounds[1]
	for _, b := range d.Bounds {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return schemaErrorf(param, "bounds must be finite, got [%g, %g]", lo, hi)
		}
	}
	if lo > hi {
		return schemaErrorf(param, "lower bound %g is greater than upper bound %g", lo, hi)
	}
	return nil
}

// quantile returns the inverse CDF used to map a unit sample onto the
// parameter domain. The distribution must already be validated.
func (d *Distribution) quantile() func(p float64) float64 {
	name, _ := canonicalDistribution(d.Name)
	switch name {
	case DistNormal:
		dist := distuv.Normal{Mu: *d.Loc, Sigma: *d.Scale}
		return func(p float64) float64 { return dist.Quantile(clampUnit(p)) }
	case DistLogNormal:
		dist := distuv.LogNormal{Mu: *d.Loc, Sigma: *d.Scale}
		return func(p float64) float64 { return dist.Quantile(clampUnit(p)) }
	case DistTriangular:
		lo, hi := d.Bounds[0], d.Bounds[1]
		dist := distuv.NewTriangle(lo, hi, *d.Mode, nil)
		return func(p float64) float64 { return clamp(dist.Quantile(p), lo, hi) }
	default:
		lo, hi := d.Bounds[0], d.Bounds[1]
		dist := distuv.Uniform{Min: lo, Max: hi}
		return func(p float64) float64 { return clamp(dist.Quantile(p), lo, hi) }
	}
}

func clampUnit(p float64) float64 {
	return clamp(p, unboundedEpsilon, 1-unboundedEpsilon)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
