package paramstudy

import "fmt"

// maxCombinations caps the size of a cartesian product before allocation.
const maxCombinations = 100000

// CartesianProduct enumerates every combination of the parameters' discrete
// value lists. The last declared parameter varies fastest.
type CartesianProduct struct{}

// Method implements Generator.
func (CartesianProduct) Method() Method { return MethodCartesianProduct }

// Validate implements Generator.
func (CartesianProduct) Validate(s *Schema) error {
	if err := s.validateNames(); err != nil {
		return err
	}
	if len(s.Samples) > 0 {
		return &SchemaError{Constraint: "parameter_samples is only valid for custom studies"}
	}
	total := int64(1)
	for _, p := range s.Parameters {
		if p.Distribution != nil {
			return schemaErrorf(p.Name, "cartesian product requires a list of discrete values, got a distribution")
		}
		if len(p.Values) == 0 {
			return schemaErrorf(p.Name, "value list must not be empty")
		}
		if _, err := columnKind(p.Values); err != nil {
			return schemaErrorf(p.Name, "%v", err)
		}
		seen := make(map[string]bool, len(p.Values))
		for _, v := range p.Values {
			key := v.Kind().String() + ":" + v.Canonical()
			if v.Kind().IsNumeric() {
				key = "number:" + v.Canonical()
			}
			if seen[key] {
				return schemaErrorf(p.Name, "duplicate value %s", v)
			}
			seen[key] = true
		}
		total *= int64(len(p.Values))
		if total > maxCombinations {
			return &SchemaError{Constraint: fmt.Sprintf("parameter combinations would exceed safe limit of %d", maxCombinations)}
		}
	}
	return nil
}

// Generate implements Generator.
func (c CartesianProduct) Generate(s *Schema) ([]ParameterSet, error) {
	if err := c.Validate(s); err != nil {
		return nil, err
	}

	total := 1
	for _, p := range s.Parameters {
		total *= len(p.Values)
	}

	sets := make([]ParameterSet, total)
	for i := range sets {
		sets[i] = make(ParameterSet, len(s.Parameters))
	}

	repeat := 1
	for dim := len(s.Parameters) - 1; dim >= 0; dim-- {
		p := s.Parameters[dim]
		cycle := len(p.Values)
		for i := 0; i < total; i++ {
			sets[i][p.Name] = p.Values[(i/repeat)%cycle]
		}
		repeat *= cycle
	}
	return sets, nil
}
