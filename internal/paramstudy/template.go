package paramstudy

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberPlaceholder is replaced by the set index in a set name template.
const NumberPlaceholder = "@number"

// DefaultSetNameTemplate yields parameter_set0, parameter_set1, ...
const DefaultSetNameTemplate SetNameTemplate = "parameter_set" + NumberPlaceholder

// SetNameTemplate formats set indices into set names.
type SetNameTemplate string

// Validate checks the template holds exactly one @number placeholder.
func (t SetNameTemplate) Validate() error {
	if n := strings.Count(string(t), NumberPlaceholder); n != 1 {
		return fmt.Errorf("set name template %q must contain %s exactly once, found %d", string(t), NumberPlaceholder, n)
	}
	return nil
}

// Format returns the set name for index n.
func (t SetNameTemplate) Format(n int) string {
	return strings.Replace(string(t), NumberPlaceholder, strconv.Itoa(n), 1)
}

// Parse recovers the index from a set name produced by Format.
func (t SetNameTemplate) Parse(name string) (int, bool) {
	prefix, suffix, ok := strings.Cut(string(t), NumberPlaceholder)
	if !ok || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	if len(name) <= len(prefix)+len(suffix) {
		return 0, false
	}
	digits := name[len(prefix) : len(name)-len(suffix)]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || t.Format(n) != name {
		// Leading zeros do not round-trip.
		return 0, false
	}
	return n, true
}
