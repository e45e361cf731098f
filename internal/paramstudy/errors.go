package paramstudy

import "fmt"

// SchemaError reports a malformed or incomplete parameter schema. Parameter
// is empty when the problem is not tied to a single parameter.
type SchemaError struct {
	Parameter  string
	Constraint string
}

func (e *SchemaError) Error() string {
	if e.Parameter == "" {
		return "invalid parameter schema: " + e.Constraint
	}
	return fmt.Sprintf("invalid parameter schema: parameter %q: %s", e.Parameter, e.Constraint)
}

func schemaErrorf(parameter, format string, args ...any) *SchemaError {
	return &SchemaError{Parameter: parameter, Constraint: fmt.Sprintf(format, args...)}
}

// FileFormatError reports a file that does not hold a structurally valid
// parameter study.
type FileFormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FileFormatError) Error() string {
	msg := fmt.Sprintf("%s: not a valid parameter study: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FileFormatError) Unwrap() error { return e.Err }

// HashCollisionError reports two different parameter sets sharing one set
// hash. MD5 makes this practically unreachable; it is reported rather than
// merged.
type HashCollisionError struct {
	Hash    string
	SetName string
}

func (e *HashCollisionError) Error() string {
	if e.SetName == "" {
		return fmt.Sprintf("set hash %s identifies two different parameter sets", e.Hash)
	}
	return fmt.Sprintf("set hash %s of %s identifies two different parameter sets", e.Hash, e.SetName)
}
