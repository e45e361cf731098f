package paramstudy

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

// Top-level schema keys that are settings rather than parameters.
const (
	keyMethod           = "method"
	keyNumSamples       = "num_samples"
	keyNumSimulations   = "num_simulations"
	keySeed             = "seed"
	keyScramble         = "scramble"
	keyParameterNames   = "parameter_names"
	keyParameterSamples = "parameter_samples"
)

// ParseSchema decodes a YAML or JSON parameter schema. Parameters keep the
// order they are declared in. When the document has no method key the
// method is inferred from the parameter domains.
func ParseSchema(data []byte) (*Schema, error) {
	return parseSchema(data, "")
}

// ParseSchemaAs decodes a schema for a fixed method. A method key in the
// document must agree with m.
func ParseSchemaAs(data []byte, m Method) (*Schema, error) {
	return parseSchema(data, m)
}

func parseSchema(data []byte, forced Method) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &SchemaError{Constraint: fmt.Sprintf("cannot parse schema: %v", err)}
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, &SchemaError{Constraint: "schema is empty"}
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, &SchemaError{Constraint: "schema must be a mapping of parameter names to domains"}
	}

	s := &Schema{}
	var names []string
	var samplesNode *yaml.Node
	seen := make(map[string]bool)

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if seen[key] {
			return nil, schemaErrorf(key, "duplicate parameter name")
		}
		seen[key] = true

		var err error
		switch key {
		case keyMethod:
			var m string
			if err = decodeScalar(val, &m); err == nil {
				s.Method, err = ParseMethod(m)
			}
		case keyNumSamples, keyNumSimulations:
			if seen[keyNumSamples] && seen[keyNumSimulations] {
				return nil, &SchemaError{Constraint: "num_samples and num_simulations are aliases, give only one"}
			}
			err = decodeScalar(val, &s.NumSamples)
		case keySeed:
			var seed uint64
			if err = decodeScalar(val, &seed); err == nil {
				s.Seed = &seed
			}
		case keyScramble:
			var scramble bool
			if err = decodeScalar(val, &scramble); err == nil {
				s.Scramble = &scramble
			}
		case keyParameterNames:
			err = val.Decode(&names)
		case keyParameterSamples:
			samplesNode = val
		default:
			var p Parameter
			if p, err = parseParameter(key, val); err != nil {
				return nil, err
			}
			s.Parameters = append(s.Parameters, p)
			continue
		}
		if err != nil {
			return nil, schemaErrorf(key, "%v", err)
		}
	}

	if names != nil || samplesNode != nil {
		if len(s.Parameters) > 0 {
			return nil, &SchemaError{Constraint: "parameter_samples cannot be combined with parameter domains"}
		}
		if err := parseSamples(s, names, samplesNode); err != nil {
			return nil, err
		}
	}

	if forced != "" {
		if s.Method != "" && s.Method != forced {
			return nil, schemaErrorf(keyMethod, "schema declares %s but %s was requested", s.Method, forced)
		}
		s.Method = forced
	}
	if s.Method == "" {
		m, err := inferMethod(s)
		if err != nil {
			return nil, err
		}
		s.Method = m
	}
	return s, nil
}

func parseParameter(name string, node *yaml.Node) (Parameter, error) {
	p := Parameter{Name: name}
	switch node.Kind {
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return p, schemaErrorf(name, "value list must not be empty")
		}
		for _, item := range node.Content {
			v, err := scalarValue(item)
			if err != nil {
				return p, schemaErrorf(name, "%v", err)
			}
			p.Values = append(p.Values, v)
		}
	case yaml.MappingNode:
		d, err := parseDistribution(name, node)
		if err != nil {
			return p, err
		}
		p.Distribution = d
	default:
		return p, schemaErrorf(name, "domain must be a list of values or a distribution mapping")
	}
	return p, nil
}

func parseDistribution(name string, node *yaml.Node) (*Distribution, error) {
	d := &Distribution{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		var err error
		switch key {
		case "distribution":
			err = decodeScalar(val, &d.Name)
		case "bounds":
			err = val.Decode(&d.Bounds)
		case "lower":
			err = setBound(d, 0, val)
		case "upper":
			err = setBound(d, 1, val)
		case "loc":
			d.Loc = new(float64)
			err = decodeScalar(val, d.Loc)
		case "scale":
			d.Scale = new(float64)
			err = decodeScalar(val, d.Scale)
		case "mode":
			d.Mode = new(float64)
			err = decodeScalar(val, d.Mode)
		case keyNumSamples, keyNumSimulations:
			err = decodeScalar(val, &d.NumSamples)
		case keySeed:
			d.Seed = new(uint64)
			err = decodeScalar(val, d.Seed)
		default:
			err = fmt.Errorf("unknown distribution key %q", key)
		}
		if err != nil {
			return nil, schemaErrorf(name, "%s: %v", key, err)
		}
	}
	return d, nil
}

// setBound fills one side of Bounds from separate lower/upper keys.
func setBound(d *Distribution, idx int, node *yaml.Node) error {
	var f float64
	if err := decodeScalar(node, &f); err != nil {
		return err
	}
	if d.Bounds == nil {
		d.Bounds = []float64{math.NaN(), math.NaN()}
	}
	if len(d.Bounds) != 2 {
		return fmt.Errorf("bounds given twice")
	}
	d.Bounds[idx] = f
	return nil
}

func parseSamples(s *Schema, names []string, node *yaml.Node) error {
	if len(names) == 0 {
		return &SchemaError{Constraint: "custom study requires parameter_names"}
	}
	if node == nil || node.Kind != yaml.SequenceNode {
		return &SchemaError{Constraint: "custom study requires parameter_samples as a list of rows"}
	}
	for _, name := range names {
		s.Parameters = append(s.Parameters, Parameter{Name: name})
	}
	for r, rowNode := range node.Content {
		if rowNode.Kind != yaml.SequenceNode {
			return &SchemaError{Constraint: fmt.Sprintf("parameter_samples row %d must be a list", r)}
		}
		row := make([]Value, 0, len(rowNode.Content))
		for c, item := range rowNode.Content {
			v, err := scalarValue(item)
			if err != nil {
				param := ""
				if c < len(names) {
					param = names[c]
				}
				return schemaErrorf(param, "row %d: %v", r, err)
			}
			row = append(row, v)
		}
		s.Samples = append(s.Samples, row)
	}
	return nil
}

// inferMethod picks the sampling method for a schema without a method key.
func inferMethod(s *Schema) (Method, error) {
	if len(s.Samples) > 0 {
		return MethodCustomStudy, nil
	}
	if len(s.Parameters) == 0 {
		return "", &SchemaError{Constraint: "at least one parameter is required"}
	}
	allLists := true
	var hint Method
	for _, p := range s.Parameters {
		if p.Distribution == nil {
			continue
		}
		allLists = false
		if m, ok := methodHint(p.Distribution.Name); ok {
			if hint != "" && hint != m {
				return "", schemaErrorf(p.Name, "distribution implies %s but another parameter implies %s", m, hint)
			}
			hint = m
		}
	}
	switch {
	case allLists:
		return MethodCartesianProduct, nil
	case hint != "":
		return hint, nil
	}
	return "", &SchemaError{Constraint: "cannot infer the sampling method, set method to latin_hypercube or sobol_sequence"}
}

func decodeScalar(node *yaml.Node, out any) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected a scalar")
	}
	return node.Decode(out)
}

// scalarValue converts a YAML scalar into a Value using its resolved tag.
func scalarValue(node *yaml.Node) (Value, error) {
	if node.Kind != yaml.ScalarNode {
		return Value{}, fmt.Errorf("values must be scalars")
	}
	switch node.ShortTag() {
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case "!!float":
		var f float64
		if err := node.Decode(&f); err != nil {
			return Value{}, err
		}
		return floatValue(f)
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case "!!str":
		return String(node.Value), nil
	case "!!null":
		return Value{}, fmt.Errorf("null is not a valid parameter value")
	}
	return Value{}, fmt.Errorf("unsupported value %q (%s)", node.Value, node.ShortTag())
}
