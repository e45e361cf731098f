package paramstudy

import "fmt"

// CustomStudy passes hand-curated or externally generated rows through as
// parameter sets.
type CustomStudy struct{}

// NewCustomSchema builds a custom study schema from column names and rows
// of plain Go values.
func NewCustomSchema(names []string, rows [][]any) (*Schema, error) {
	s := &Schema{Method: MethodCustomStudy}
	for _, name := range names {
		s.Parameters = append(s.Parameters, Parameter{Name: name})
	}
	for r, row := range rows {
		values := make([]Value, len(row))
		for c, raw := range row {
			v, err := ValueOf(raw)
			if err != nil {
				param := ""
				if c < len(names) {
					param = names[c]
				}
				return nil, schemaErrorf(param, "row %d: %v", r, err)
			}
			values[c] = v
		}
		s.Samples = append(s.Samples, values)
	}
	return s, nil
}

// Method implements Generator.
func (CustomStudy) Method() Method { return MethodCustomStudy }

// Validate implements Generator.
func (CustomStudy) Validate(s *Schema) error {
	if err := s.validateNames(); err != nil {
		return err
	}
	for _, p := range s.Parameters {
		if p.Distribution != nil || len(p.Values) > 0 {
			return schemaErrorf(p.Name, "custom studies take rows in parameter_samples, not per-parameter domains")
		}
	}
	if len(s.Samples) == 0 {
		return &SchemaError{Constraint: "custom study requires at least one row in parameter_samples"}
	}
	for r, row := range s.Samples {
		if len(row) != len(s.Parameters) {
			return &SchemaError{Constraint: fmt.Sprintf("row %d has %d values, expected one per parameter (%d)", r, len(row), len(s.Parameters))}
		}
	}
	column := make([]Value, len(s.Samples))
	for c, p := range s.Parameters {
		for r, row := range s.Samples {
			column[r] = row[c]
		}
		if _, err := columnKind(column); err != nil {
			return schemaErrorf(p.Name, "%v", err)
		}
	}
	return nil
}

// Generate implements Generator.
func (c CustomStudy) Generate(s *Schema) ([]ParameterSet, error) {
	if err := c.Validate(s); err != nil {
		return nil, err
	}
	sets := make([]ParameterSet, len(s.Samples))
	for r, row := range s.Samples {
		set := make(ParameterSet, len(row))
		for c, v := range row {
			set[s.Parameters[c].Name] = v
		}
		sets[r] = set
	}
	return sets, nil
}
