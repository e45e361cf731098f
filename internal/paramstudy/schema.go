package paramstudy

import (
	"fmt"
	"strings"
)

// Method names a sampling strategy.
type Method string

const (
	MethodCartesianProduct Method = "cartesian_product"
	MethodLatinHypercube   Method = "latin_hypercube"
	MethodSobolSequence    Method = "sobol_sequence"
	MethodCustomStudy      Method = "custom_study"
)

// Methods lists every supported strategy.
var Methods = []Method{MethodCartesianProduct, MethodLatinHypercube, MethodSobolSequence, MethodCustomStudy}

// ParseMethod accepts the canonical method names plus short and dashed forms
// (cartesian, lhs, sobol, custom, latin-hypercube, ...).
func ParseMethod(s string) (Method, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch key {
	case "cartesian_product", "cartesian", "full_factorial":
		return MethodCartesianProduct, nil
	case "latin_hypercube", "lhs":
		return MethodLatinHypercube, nil
	case "sobol_sequence", "sobol":
		return MethodSobolSequence, nil
	case "custom_study", "custom":
		return MethodCustomStudy, nil
	}
	return "", fmt.Errorf("unknown sampling method %q", s)
}

// Reserved column names of a persisted study.
const (
	SetNameColumn = "set_name"
	SetHashColumn = "set_hash"
)

// Distribution describes a continuous parameter domain for the sampling
// strategies. Bounds holds [lower, upper].
type Distribution struct {
	Name       string
	Bounds     []float64
	Loc        *float64
	Scale      *float64
	Mode       *float64
	NumSamples int
	Seed       *uint64
}

// Parameter is one named entry of a schema. Exactly one of Values and
// Distribution is set.
type Parameter struct {
	Name         string
	Values       []Value
	Distribution *Distribution
}

// Schema is the declarative description of a parameter study. Parameters
// keep their declared order. Samples is only used by custom studies, with
// one value per parameter in each row.
type Schema struct {
	Method     Method
	NumSamples int
	Seed       *uint64
	Scramble   *bool
	Parameters []Parameter
	Samples    [][]Value
}

// ParameterNames returns the parameter names in declared order.
func (s *Schema) ParameterNames() []string {
	names := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		names[i] = p.Name
	}
	return names
}

// Validate checks the schema against the requirements of its method.
func (s *Schema) Validate() error {
	g, err := GeneratorFor(s.Method, nil)
	if err != nil {
		return &SchemaError{Constraint: err.Error()}
	}
	return g.Validate(s)
}

// validateNames checks the rules shared by every method.
func (s *Schema) validateNames() error {
	if len(s.Parameters) == 0 {
		return &SchemaError{Constraint: "at least one parameter is required"}
	}
	seen := make(map[string]bool, len(s.Parameters))
	for _, p := range s.Parameters {
		name := p.Name
		switch {
		case strings.TrimSpace(name) == "":
			return &SchemaError{Constraint: "parameter names must be non-empty"}
		case name == SetNameColumn || name == SetHashColumn:
			return schemaErrorf(name, "name is reserved for the study table")
		case seen[name]:
			return schemaErrorf(name, "duplicate parameter name")
		}
		seen[name] = true
	}
	return nil
}

// samplingSettings resolves the sample count and seed shared by every
// dimension of a latin hypercube or Sobol study.
func (s *Schema) samplingSettings() (int, *uint64, error) {
	n := s.NumSamples
	seed := s.Seed
	for _, p := range s.Parameters {
		d := p.Distribution
		if d == nil {
			continue
		}
		if d.NumSamples != 0 {
			if n != 0 && n != d.NumSamples {
				return 0, nil, schemaErrorf(p.Name, "num_samples %d conflicts with %d", d.NumSamples, n)
			}
			n = d.NumSamples
		}
		if d.Seed != nil {
			if seed != nil && *seed != *d.Seed {
				return 0, nil, schemaErrorf(p.Name, "seed %d conflicts with %d", *d.Seed, *seed)
			}
			seed = d.Seed
		}
	}
	if n < 1 {
		return 0, nil, &SchemaError{Constraint: fmt.Sprintf("num_samples must be a positive integer, got %d", n)}
	}
	if n > maxCombinations {
		return 0, nil, &SchemaError{Constraint: fmt.Sprintf("num_samples %d exceeds safe limit of %d", n, maxCombinations)}
	}
	return n, seed, nil
}

// validateDistributions checks every parameter has a valid distribution and
// that the shared sampling settings are consistent.
func (s *Schema) validateDistributions() error {
	if len(s.Samples) > 0 {
		return &SchemaError{Constraint: "parameter_samples is only valid for custom studies"}
	}
	for _, p := range s.Parameters {
		if p.Distribution == nil {
			return schemaErrorf(p.Name, "a distribution with bounds is required, got a list of values")
		}
		if err := p.Distribution.validate(p.Name); err != nil {
			return err
		}
	}
	_, _, err := s.samplingSettings()
	return err
}
